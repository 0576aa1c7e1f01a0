package mutperiod

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"

	"github.com/bmorledge-hampton19/mutperiod/encoding/bed"
	"github.com/bmorledge-hampton19/mutperiod/encoding/fasta"
)

// ExpandContext rewrites the normalized bed file at bedPath so that each
// record's reference-base column holds the surrounding nucleotide context of
// the given odd width (3 or 5), extracted strand-aware from the genome at
// genomePath.  Record coordinates are left untouched; only the context column
// changes.  Records whose expanded window would start before position 0 are
// dropped with a log line, matching the truncation behavior downstream
// statistics assume.
func ExpandContext(ctx context.Context, bedPath, genomePath, outPath string, width int) (err error) {
	if width != 3 && width != 5 {
		return &RangeError{Msg: fmt.Sprintf("unsupported expansion context width %d: expected 3 or 5", width)}
	}
	cur, err := currentContextWidth(bedPath)
	if err != nil {
		return err
	}
	if cur >= width {
		return &RangeError{Msg: fmt.Sprintf(
			"%s already carries a context of width %d, which is not below the requested width %d", bedPath, cur, width)}
	}
	fa, err := loadGenome(ctx, genomePath)
	if err != nil {
		return err
	}

	// The reference stream is extracted over the expanded coordinates of the
	// same records that drive the merge, so the two stay in lockstep.
	coords, err := newExpandCoordReader(bedPath, width)
	if err != nil {
		return err
	}
	defer func() {
		if e := coords.Close(); e != nil && err == nil {
			err = e
		}
	}()
	matcher := NewMatcher(fasta.NewExtractor(fa, coords, true), false)

	in, err := os.Open(bedPath)
	if err != nil {
		return err
	}
	defer func() {
		if e := in.Close(); e != nil && err == nil {
			err = e
		}
	}()
	dst, err := file.Create(ctx, outPath)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, dst, &err)
	out := tsv.NewWriter(dst.Writer(ctx))

	log.Printf("%s: expanding record contexts to width %d", bedPath, width)
	sc := bufio.NewScanner(in)
	line := 0
	for sc.Scan() {
		line++
		rec, perr := bed.Parse(sc.Text())
		if perr != nil {
			return &FormatError{bedPath, line, perr.Error()}
		}
		start, _ := expandWindow(rec.Start, rec.End, width)
		if start < 0 {
			continue // logged when the extraction coordinates were produced
		}
		e, err := matcher.Find(Key{Chrom: rec.Chrom, Start: start, Strand: rec.Strand})
		if err != nil {
			return err
		}
		rec.Ref = e.Seq
		writeRecord(out, rec)
		if err := out.EndLine(); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return out.Flush()
}

// expandWindow computes the symmetric expansion of [start, end) to the given
// odd width, preserving the middle base.
func expandWindow(start, end, width int) (int, int) {
	middle := (start + end - 1) / 2
	return middle - width/2, middle + width/2 + 1
}

// currentContextWidth derives the context width already present in a
// normalized bed file from the length of its reference-base column, using the
// first record that carries literal bases and is not an unexpanded deletion.
// A file of nothing but indels counts as single-base context.
func currentContextWidth(path string) (width int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if e := f.Close(); e != nil && err == nil {
			err = e
		}
	}()
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		rec, perr := bed.Parse(sc.Text())
		if perr != nil {
			return 0, &FormatError{path, line, perr.Error()}
		}
		if !isDNA(rec.Ref) {
			continue
		}
		// A deletion's reference column spans the deleted bases, not a
		// context around a midpoint, so it says nothing about the width
		// already applied to the file.
		if rec.Alt == bed.Deletion && len(rec.Ref) == rec.End-rec.Start {
			continue
		}
		return len(rec.Ref), nil
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	return 1, nil
}

// expandCoordReader streams the expanded extraction coordinates for each
// record of a normalized bed file, skipping (and logging) records whose
// window would cross the start of the chromosome.
type expandCoordReader struct {
	f     *os.File
	sc    *bufio.Scanner
	path  string
	line  int
	width int
}

func newExpandCoordReader(path string, width int) (*expandCoordReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &expandCoordReader{f: f, sc: bufio.NewScanner(f), path: path, width: width}, nil
}

// Next implements fasta.CoordReader.
func (r *expandCoordReader) Next() (fasta.Coord, error) {
	for r.sc.Scan() {
		r.line++
		rec, err := bed.Parse(r.sc.Text())
		if err != nil {
			return fasta.Coord{}, &FormatError{r.path, r.line, err.Error()}
		}
		start, end := expandWindow(rec.Start, rec.End, r.width)
		if start < 0 {
			log.Printf("%s:%d: record at chromosome %s with expanded start position %d extends into invalid positions; skipping",
				r.path, r.line, rec.Chrom, start)
			continue
		}
		return fasta.Coord{Chrom: rec.Chrom, Start: start, End: end, Strand: rec.Strand}, nil
	}
	if err := r.sc.Err(); err != nil {
		return fasta.Coord{}, err
	}
	return fasta.Coord{}, io.EOF
}

func (r *expandCoordReader) Close() error {
	return r.f.Close()
}
