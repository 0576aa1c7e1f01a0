package mutperiod

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"

	"github.com/bmorledge-hampton19/mutperiod/encoding/bed"
	"github.com/bmorledge-hampton19/mutperiod/encoding/fasta"
)

// ParseBed validates the custom bed file at bedPath against the genome at
// genomePath, resolving any "." auto-acquire sentinels in the reference-base
// and strand columns.  If any resolution occurred, bedPath is atomically
// replaced with the resolved records.  The validated records are then
// normalized (single-base substitutions flipped onto the pyrimidine-containing
// strand) and written to outPath.
//
// bedPath must already be sorted by chromosome and start position; the stage
// fails with a MatchNotFoundError if its ordering is inconsistent with the
// genome-derived reference stream.
func ParseBed(ctx context.Context, bedPath, genomePath, outPath string) error {
	fa, err := loadGenome(ctx, genomePath)
	if err != nil {
		return err
	}
	log.Printf("checking %s for formatting and auto-acquire requests", bedPath)
	if err := acquireAndCheck(bedPath, fa); err != nil {
		return err
	}
	return writeNormalized(ctx, bedPath, outPath)
}

// bedValidator carries the state needed for the per-record checks: the set of
// acceptable chromosomes, and whether cohort designations were established as
// present or absent by the first record.
type bedValidator struct {
	file        string
	chroms      map[string]bool
	cohortKnown bool
	hasCohort   bool
}

func newBedValidator(file string, fa fasta.Fasta) *bedValidator {
	chroms := make(map[string]bool)
	for _, name := range fa.SeqNames() {
		chroms[name] = true
	}
	return &bedValidator{file: file, chroms: chroms}
}

// check enumerates the content rules on one parsed record.  The first
// violated rule wins.
func (v *bedValidator) check(rec bed.Record, line int) error {
	if !v.chroms[rec.Chrom] {
		return &FormatError{v.file, line, fmt.Sprintf(
			"invalid chromosome identifier %q: expected one of the genome's sequence names", rec.Chrom)}
	}
	if rec.Start < 0 || rec.End < 0 || rec.Start >= rec.End {
		return &RangeError{v.file, line, fmt.Sprintf(
			"base positions should be non-negative and span a minimum range of 1 base; got %d, %d", rec.Start, rec.End)}
	}
	if rec.Ref == bed.Insertion && rec.Alt == bed.Deletion {
		return &FormatError{v.file, line,
			"reference and alteration columns are both \"*\": an entry cannot be an insertion and a deletion simultaneously"}
	}
	if !isDNA(rec.Ref) && rec.Ref != bed.Insertion && rec.Ref != bed.AutoAcquire {
		return &AlphabetError{v.file, line, "reference base(s)", rec.Ref}
	}
	if rec.Ref == bed.Insertion && rec.End-rec.Start != 2 {
		return &RangeError{v.file, line, fmt.Sprintf(
			"insertion entries must span exactly the 2 bases flanking the insertion site; got a span of %d", rec.End-rec.Start)}
	}
	if !isDNA(rec.Alt) && rec.Alt != bed.Deletion && rec.Alt != bed.OtherAlt {
		return &AlphabetError{v.file, line, "alteration", rec.Alt}
	}
	if rec.Strand != '+' && rec.Strand != '-' && rec.Strand != '.' {
		return &FormatError{v.file, line, fmt.Sprintf(
			"invalid strand designation %q: should be \"+\", \"-\", or \".\" to auto-acquire", string(rec.Strand))}
	}
	if !v.cohortKnown {
		v.cohortKnown = true
		v.hasCohort = rec.HasCohort
	} else if v.hasCohort != rec.HasCohort {
		return &FormatError{v.file, line,
			"cohort designations must be present on every record or on none; use \".\" for records outside any cohort"}
	}
	if rec.HasCohort && strings.TrimSpace(rec.Cohort) == "" {
		return &FormatError{v.file, line,
			"cohort designations should contain at least one non-whitespace character; use \".\" for records outside any cohort"}
	}
	return nil
}

// acquireAndCheck runs the validation pass over bedPath.  Records are written
// to a temporary file as they are resolved; the temporary file replaces
// bedPath only when at least one auto-acquisition occurred, and is removed
// otherwise.
func acquireAndCheck(bedPath string, fa fasta.Fasta) (err error) {
	in, err := os.Open(bedPath)
	if err != nil {
		return err
	}
	defer func() {
		if e := in.Close(); e != nil && err == nil {
			err = e
		}
	}()

	tmpPath := bedPath + ".tmp"
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	replaced := false
	tmpClosed := false
	defer func() {
		if !tmpClosed {
			tmp.Close()
		}
		if !replaced {
			os.Remove(tmpPath)
		}
	}()
	out := bufio.NewWriter(tmp)

	// The reference stream is derived lazily, on the first record that
	// requests acquisition.
	var matcher *Matcher
	var coords *bedCoordReader
	defer func() {
		if coords != nil {
			if e := coords.Close(); e != nil && err == nil {
				err = e
			}
		}
	}()
	ensureMatcher := func() error {
		if matcher != nil {
			return nil
		}
		log.Printf("%s: auto-acquire requested; deriving reference sequences from the genome", bedPath)
		var err error
		if coords, err = newBedCoordReader(bedPath); err != nil {
			return err
		}
		matcher = NewMatcher(fasta.NewExtractor(fa, coords, true), true)
		return nil
	}

	v := newBedValidator(bedPath, fa)
	acquired := false
	sc := bufio.NewScanner(in)
	line := 0
	for sc.Scan() {
		line++
		rec, perr := bed.Parse(sc.Text())
		if perr != nil {
			return &FormatError{bedPath, line, perr.Error()}
		}
		if err := v.check(rec, line); err != nil {
			return err
		}

		if rec.Ref == bed.AutoAcquire {
			if err := ensureMatcher(); err != nil {
				return err
			}
			e, err := matcher.Find(Key{rec.Chrom, rec.Start, rec.End, rec.Strand})
			if err != nil {
				return err
			}
			rec.Ref = e.Seq
			acquired = true
		}
		// The strand can only be inferred when the record is not an
		// insertion, since an insertion has no reference sequence of its own.
		if rec.Strand == '.' && rec.Ref != bed.Insertion {
			if err := ensureMatcher(); err != nil {
				return err
			}
			e, err := matcher.Find(Key{rec.Chrom, rec.Start, rec.End, rec.Strand})
			if err != nil {
				return err
			}
			switch rec.Ref {
			case e.Seq:
				rec.Strand = '+'
			case fasta.ReverseComplement(e.Seq):
				rec.Strand = '-'
			default:
				return &SequenceMismatchError{bedPath, line, e.Name(), rec.Ref}
			}
			acquired = true
		}

		if _, err := out.WriteString(rec.String()); err != nil {
			return err
		}
		if err := out.WriteByte('\n'); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if err := out.Flush(); err != nil {
		return err
	}
	tmpClosed = true
	if err := tmp.Close(); err != nil {
		return err
	}

	if !acquired {
		return nil
	}
	log.Printf("%s: overwriting with auto-acquired bases and strand designations", bedPath)
	if err := os.Rename(tmpPath, bedPath); err != nil {
		return err
	}
	replaced = true
	return nil
}

// writeNormalized converts validated records to the normalized form used by
// the rest of the pipeline: single-base substitutions originating from a
// purine are flipped onto the pyrimidine-containing strand.  Any reserved
// trailing columns are dropped.
func writeNormalized(ctx context.Context, bedPath, outPath string) (err error) {
	r, closer, err := openReader(ctx, bedPath)
	if err != nil {
		return err
	}
	defer func() {
		if e := closer(); e != nil && err == nil {
			err = e
		}
	}()

	dst, err := file.Create(ctx, outPath)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, dst, &err)
	out := tsv.NewWriter(dst.Writer(ctx))

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		rec, perr := bed.Parse(sc.Text())
		if perr != nil {
			return &FormatError{bedPath, line, perr.Error()}
		}
		if IsPurine(rec.Ref) && len(rec.Alt) == 1 && isDNA(rec.Alt) {
			rec.Ref = fasta.ReverseComplement(rec.Ref)
			rec.Alt = fasta.ReverseComplement(rec.Alt)
			switch rec.Strand {
			case '+':
				rec.Strand = '-'
			case '-':
				rec.Strand = '+'
			}
		}
		rec.Extra = nil
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

func writeRecord(w *tsv.Writer, rec bed.Record) {
	for _, f := range rec.Fields() {
		w.WriteString(f)
	}
}

// bedCoordReader streams the coordinates of a custom bed file, for deriving
// the auto-acquire reference stream from the same file that drives the merge.
type bedCoordReader struct {
	f    *os.File
	sc   *bufio.Scanner
	path string
	line int
}

func newBedCoordReader(path string) (*bedCoordReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &bedCoordReader{f: f, sc: bufio.NewScanner(f), path: path}, nil
}

// Next implements fasta.CoordReader.
func (r *bedCoordReader) Next() (fasta.Coord, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return fasta.Coord{}, err
		}
		return fasta.Coord{}, io.EOF
	}
	r.line++
	rec, err := bed.Parse(r.sc.Text())
	if err != nil {
		return fasta.Coord{}, &FormatError{r.path, r.line, err.Error()}
	}
	return fasta.Coord{Chrom: rec.Chrom, Start: rec.Start, End: rec.End, Strand: rec.Strand}, nil
}

func (r *bedCoordReader) Close() error {
	return r.f.Close()
}
