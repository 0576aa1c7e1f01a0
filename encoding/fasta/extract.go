package fasta

// Extraction of coordinate-keyed entry streams from a reference genome.  This
// takes the place of an external "bed to fasta" tool: given a stream of
// coordinates and an in-memory genome, it yields one Entry per coordinate, in
// coordinate-stream order.

import (
	"strings"

	"github.com/pkg/errors"
)

// Coord is a half-open genomic range with strand.
type Coord struct {
	Chrom  string
	Start  int
	End    int
	Strand byte
}

// CoordReader yields genomic coordinates in stream order, returning io.EOF
// after the last one.
type CoordReader interface {
	Next() (Coord, error)
}

// Extractor derives an entry stream from a coordinate stream and a genome.
// When stranded is true, minus-strand coordinates yield the reverse
// complement of the plus-strand sequence; any other strand character yields
// the plus-strand sequence as-is.
type Extractor struct {
	fa       Fasta
	coords   CoordReader
	stranded bool
}

// NewExtractor returns an Extractor over the given coordinate stream.
func NewExtractor(fa Fasta, coords CoordReader, stranded bool) *Extractor {
	return &Extractor{fa: fa, coords: coords, stranded: stranded}
}

// Next returns the entry for the next coordinate, or io.EOF after the last
// one.
func (x *Extractor) Next() (Entry, error) {
	c, err := x.coords.Next()
	if err != nil {
		return Entry{}, err
	}
	seq, err := x.fa.Get(c.Chrom, c.Start, c.End)
	if err != nil {
		return Entry{}, errors.Wrapf(err, "extracting %s:%d-%d", c.Chrom, c.Start, c.End)
	}
	if x.stranded && c.Strand == '-' {
		seq = ReverseComplement(seq)
	}
	return Entry{Chrom: c.Chrom, Start: c.Start, End: c.End, Strand: c.Strand, Seq: seq}, nil
}

var complement = [256]byte{'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A', 'N': 'N',
	'a': 't', 'c': 'g', 'g': 'c', 't': 'a', 'n': 'n'}

// ReverseComplement returns the base-pair complement of seq read in reverse
// order.  Bases without a defined complement map to 'N'.
func ReverseComplement(seq string) string {
	var sb strings.Builder
	sb.Grow(len(seq))
	for i := len(seq) - 1; i >= 0; i-- {
		c := complement[seq[i]]
		if c == 0 {
			c = 'N'
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
