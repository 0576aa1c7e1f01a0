package mutperiod

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/tsv"

	"github.com/bmorledge-hampton19/mutperiod/encoding/fasta"
)

// NucleosomeRadius is the core nucleosome footprint on either side of the
// dyad, in bases.
const NucleosomeRadius = 73

// dyadCountsHeader is the first column name of the dyad context-counts file.
const dyadCountsHeader = "Dyad_Pos"

// DyadContextCounts is a genome-wide histogram of nucleotide contexts at each
// position relative to the nucleosome dyad.  Offsets run from
// -(73+linker) to +(73+linker) inclusive.  Context columns are recorded in
// first-observed order; the emitted file preserves that order, which
// downstream consumers rely on.
type DyadContextCounts struct {
	contextWidth int
	linker       int
	contexts     []string       // discovery order
	index        map[string]int // context -> position in contexts
	counts       []map[string]int
}

// NewDyadContextCounts returns an empty histogram for the given context width
// (odd) and linker offset.
func NewDyadContextCounts(contextWidth, linker int) *DyadContextCounts {
	d := &DyadContextCounts{
		contextWidth: contextWidth,
		linker:       linker,
		index:        make(map[string]int),
		counts:       make([]map[string]int, 2*(NucleosomeRadius+linker)+1),
	}
	for i := range d.counts {
		d.counts[i] = make(map[string]int)
	}
	return d
}

// trackedWidth is the number of dyad positions the histogram covers.
func (d *DyadContextCounts) trackedWidth() int { return len(d.counts) }

// MinOffset returns the smallest tracked dyad offset.
func (d *DyadContextCounts) MinOffset() int { return -(NucleosomeRadius + d.linker) }

// MaxOffset returns the largest tracked dyad offset.
func (d *DyadContextCounts) MaxOffset() int { return NucleosomeRadius + d.linker }

// ContextWidth returns the width of the counted contexts.
func (d *DyadContextCounts) ContextWidth() int { return d.contextWidth }

// LinkerOffset returns the linker extension the offset range was built with.
func (d *DyadContextCounts) LinkerOffset() int { return d.linker }

// Contexts returns the observed contexts in first-observed order.  The
// returned slice is owned by the histogram.
func (d *DyadContextCounts) Contexts() []string { return d.contexts }

// Count returns the number of windows presenting the given context at the
// given dyad offset.
func (d *DyadContextCounts) Count(offset int, context string) int {
	return d.counts[offset-d.MinOffset()][context]
}

func (d *DyadContextCounts) add(offset int, context string) {
	if _, ok := d.index[context]; !ok {
		d.index[context] = len(d.contexts)
		d.contexts = append(d.contexts, context)
	}
	d.counts[offset-d.MinOffset()][context]++
}

// AddWindow slides a contextWidth-wide window across one dyad-centered
// sequence entry, incrementing the context count at every tracked offset.
// The entry must be symmetric around the dyad: its length beyond the tracked
// width must be even, and large enough that every extracted context has the
// full configured width.
func (d *DyadContextCounts) AddWindow(e fasta.Entry) error {
	excess := len(e.Seq) - d.trackedWidth()
	if excess < 0 || excess%2 != 0 {
		return &ArithmeticConsistencyError{e.Name(), fmt.Sprintf(
			"sequence length %d exceeds the tracked width %d by %d bases, which is not a non-negative even number",
			len(e.Seq), d.trackedWidth(), excess)}
	}
	extra := excess / 2
	ext := d.contextWidth / 2
	for i := 0; i < d.trackedWidth(); i++ {
		lo := i + extra - ext
		hi := i + extra + ext + 1
		if lo < 0 || hi > len(e.Seq) {
			return &ArithmeticConsistencyError{e.Name(), fmt.Sprintf(
				"context at dyad position %d runs off the sequence: expected length %d", i+d.MinOffset(), d.contextWidth)}
		}
		d.add(i+d.MinOffset(), e.Seq[lo:hi])
	}
	return nil
}

// CountDyadContexts builds the histogram from a stream of dyad-centered
// sequence entries.
func CountDyadContexts(entries EntryIterator, contextWidth, linker int) (*DyadContextCounts, error) {
	d := NewDyadContextCounts(contextWidth, linker)
	for {
		e, err := entries.Next()
		if err == io.EOF {
			return d, nil
		}
		if err != nil {
			return nil, err
		}
		if err := d.AddWindow(e); err != nil {
			return nil, err
		}
	}
}

// WriteTo writes the histogram as a tab-separated table: a header row naming
// the contexts in first-observed order, then one row per offset in ascending
// order with a zero count for every context unobserved at that offset.
func (d *DyadContextCounts) WriteTo(w io.Writer) error {
	out := tsv.NewWriter(w)
	out.WriteString(dyadCountsHeader)
	for _, c := range d.contexts {
		out.WriteString(c)
	}
	if err := out.EndLine(); err != nil {
		return err
	}
	for i, byContext := range d.counts {
		out.WriteInt64(int64(i + d.MinOffset()))
		for _, c := range d.contexts {
			out.WriteInt64(int64(byContext[c]))
		}
		if err := out.EndLine(); err != nil {
			return err
		}
	}
	return out.Flush()
}

// ReadDyadContextCounts reads a histogram previously written by WriteTo.  The
// linker offset is recovered from the first offset row.
func ReadDyadContextCounts(r io.Reader) (*DyadContextCounts, error) {
	sc := bufio.NewScanner(r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("dyad context counts: missing header row")
	}
	header := strings.Split(sc.Text(), "\t")
	if len(header) < 2 || header[0] != dyadCountsHeader {
		return nil, fmt.Errorf("dyad context counts: malformed header row %q", sc.Text())
	}
	contexts := header[1:]

	var d *DyadContextCounts
	row := 0
	for sc.Scan() {
		fields := strings.Split(sc.Text(), "\t")
		if len(fields) != len(contexts)+1 {
			return nil, fmt.Errorf("dyad context counts: row %d has %d columns; expected %d", row, len(fields), len(contexts)+1)
		}
		offset, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("dyad context counts: bad offset %q", fields[0])
		}
		if d == nil {
			linker := -offset - NucleosomeRadius
			if linker < 0 {
				return nil, fmt.Errorf("dyad context counts: first offset %d is above the tracked range", offset)
			}
			d = NewDyadContextCounts(len(contexts[0]), linker)
			for _, c := range contexts {
				d.index[c] = len(d.contexts)
				d.contexts = append(d.contexts, c)
			}
		}
		if row >= d.trackedWidth() || offset != row+d.MinOffset() {
			return nil, fmt.Errorf("dyad context counts: unexpected offset %d at row %d", offset, row)
		}
		for i, f := range fields[1:] {
			n, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("dyad context counts: bad count %q at offset %d", f, offset)
			}
			if n != 0 {
				d.counts[row][contexts[i]] = n
			}
		}
		row++
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if d == nil || row != d.trackedWidth() {
		return nil, fmt.Errorf("dyad context counts: expected one row per tracked offset")
	}
	return d, nil
}
