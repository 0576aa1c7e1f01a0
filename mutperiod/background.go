package mutperiod

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"

	"github.com/bmorledge-hampton19/mutperiod/encoding/fasta"
)

// RateTable maps a nucleotide context to its genome-wide background mutation
// rate.  It is supplied externally and read-only to the pipeline.
type RateTable map[string]float64

// ReadRateTable reads a tab-separated rate table: a header row (ignored)
// followed by rows of context and rate.
func ReadRateTable(r io.Reader) (RateTable, error) {
	br := bufio.NewReader(r)
	if _, err := br.ReadString('\n'); err != nil && err != io.EOF {
		return nil, err
	}
	type row struct {
		Context string
		Rate    float64
	}
	rates := make(RateTable)
	rd := tsv.NewReader(br)
	for {
		var line row
		if err := rd.Read(&line); err != nil {
			if err == io.EOF {
				return rates, nil
			}
			return nil, err
		}
		rates[line.Context] = line.Rate
	}
}

// Background holds the expected mutation counts at each dyad offset, per
// strand.  Values are totals over all counted windows, not averages; callers
// interpret the scale externally.
type Background struct {
	linker int
	plus   []float64
	minus  []float64
}

// MinOffset returns the smallest tracked dyad offset.
func (b *Background) MinOffset() int { return -(NucleosomeRadius + b.linker) }

// MaxOffset returns the largest tracked dyad offset.
func (b *Background) MaxOffset() int { return NucleosomeRadius + b.linker }

// Plus returns the expected plus-strand mutation count at the given offset.
func (b *Background) Plus(offset int) float64 { return b.plus[offset-b.MinOffset()] }

// Minus returns the expected minus-strand mutation count at the given offset.
func (b *Background) Minus(offset int) float64 { return b.minus[offset-b.MinOffset()] }

// Combined returns the expected mutation count over both strands at the given
// offset.
func (b *Background) Combined(offset int) float64 {
	return b.Plus(offset) + b.Minus(offset)
}

// ComputeBackground combines the per-offset context histogram with the rate
// table: each context observed at an offset contributes rate*count to the
// plus strand and reverseComplementRate*count to the minus strand.  A context
// (or reverse complement) missing from the table is a LookupError.
func ComputeBackground(counts *DyadContextCounts, rates RateTable) (*Background, error) {
	b := &Background{
		linker: counts.LinkerOffset(),
		plus:   make([]float64, counts.trackedWidth()),
		minus:  make([]float64, counts.trackedWidth()),
	}
	for offset := counts.MinOffset(); offset <= counts.MaxOffset(); offset++ {
		for _, context := range counts.Contexts() {
			n := counts.Count(offset, context)
			if n == 0 {
				continue
			}
			rate, ok := rates[context]
			if !ok {
				return nil, &LookupError{Context: context}
			}
			reverse := fasta.ReverseComplement(context)
			reverseRate, ok := rates[reverse]
			if !ok {
				return nil, &LookupError{Context: reverse}
			}
			b.plus[offset-b.MinOffset()] += rate * float64(n)
			b.minus[offset-b.MinOffset()] += reverseRate * float64(n)
		}
	}
	return b, nil
}

// WriteTo writes the expected background as a tab-separated table, one row
// per offset in ascending order.
func (b *Background) WriteTo(w io.Writer) error {
	out := tsv.NewWriter(w)
	out.WriteString("Dyad_Position")
	out.WriteString("Expected_Mutations_Plus_Strand")
	out.WriteString("Expected_Mutations_Minus_Strand")
	out.WriteString("Expected_Mutations_Both_Strands")
	if err := out.EndLine(); err != nil {
		return err
	}
	for offset := b.MinOffset(); offset <= b.MaxOffset(); offset++ {
		out.WriteInt64(int64(offset))
		out.WriteFloat64(b.Plus(offset), 'g', -1)
		out.WriteFloat64(b.Minus(offset), 'g', -1)
		out.WriteFloat64(b.Combined(offset), 'g', -1)
		if err := out.EndLine(); err != nil {
			return err
		}
	}
	return out.Flush()
}

// BackgroundOpts configures GenerateBackground.
type BackgroundOpts struct {
	// ContextWidth is the width of the counted contexts: 1, 3, or 5.
	ContextWidth int
	// LinkerOffset extends the tracked range beyond the +-73 nucleosome
	// footprint to cover linker DNA: 0 or 30.
	LinkerOffset int
	// NucFastaPath, when set, caches the expanded dyad-centered sequences.
	// An existing file is reused instead of re-extracting from the genome.
	NucFastaPath string
	// CountsPath, when set, caches the dyad-position context counts.  An
	// existing file is reused instead of recounting.
	CountsPath string
}

// DefaultBackgroundOpts holds the default GenerateBackground options.
var DefaultBackgroundOpts = BackgroundOpts{ContextWidth: 3}

// GenerateBackground computes the expected-mutation background for the
// nucleosome map at nucPosPath: each dyad coordinate is expanded to cover the
// tracked range plus enough flank for context extraction, the expanded
// windows are counted into a per-offset context histogram, and the histogram
// is combined with the rate table at ratePath.  The result is written to
// outPath.
func GenerateBackground(ctx context.Context, nucPosPath, genomePath, ratePath, outPath string, opts BackgroundOpts) (err error) {
	if opts.ContextWidth != 1 && opts.ContextWidth != 3 && opts.ContextWidth != 5 {
		return &RangeError{Msg: fmt.Sprintf("unsupported context width %d: expected 1, 3, or 5", opts.ContextWidth)}
	}
	if opts.LinkerOffset != 0 && opts.LinkerOffset != 30 {
		return &RangeError{Msg: fmt.Sprintf("unsupported linker offset %d: expected 0 or 30", opts.LinkerOffset)}
	}

	counts, err := dyadContextCounts(ctx, nucPosPath, genomePath, opts)
	if err != nil {
		return err
	}

	rateIn, rateCloser, err := openReader(ctx, ratePath)
	if err != nil {
		return err
	}
	rates, err := ReadRateTable(rateIn)
	if e := rateCloser(); e != nil && err == nil {
		err = e
	}
	if err != nil {
		return err
	}

	log.Printf("generating nucleosome mutation background for %s", nucPosPath)
	bg, err := ComputeBackground(counts, rates)
	if err != nil {
		return err
	}
	dst, err := file.Create(ctx, outPath)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, dst, &err)
	return bg.WriteTo(dst.Writer(ctx))
}

// dyadContextCounts produces the histogram for the run, honoring the two
// cache files when configured.
func dyadContextCounts(ctx context.Context, nucPosPath, genomePath string, opts BackgroundOpts) (*DyadContextCounts, error) {
	if opts.CountsPath != "" {
		if _, err := os.Stat(opts.CountsPath); err == nil {
			log.Printf("found existing dyad position context counts: %s", opts.CountsPath)
			return readCountsFile(opts.CountsPath, opts)
		}
	}

	entries, closer, err := dyadEntries(ctx, nucPosPath, genomePath, opts)
	if err != nil {
		return nil, err
	}
	counts, err := CountDyadContexts(entries, opts.ContextWidth, opts.LinkerOffset)
	if e := closer(); e != nil && err == nil {
		err = e
	}
	if err != nil {
		return nil, err
	}

	if opts.CountsPath != "" {
		log.Printf("writing dyad position context counts to %s", opts.CountsPath)
		f, err := os.Create(opts.CountsPath)
		if err != nil {
			return nil, err
		}
		err = counts.WriteTo(f)
		if e := f.Close(); e != nil && err == nil {
			err = e
		}
		if err != nil {
			return nil, err
		}
	}
	return counts, nil
}

// dyadEntries returns the stream of expanded dyad-centered sequence entries,
// reading the cached FASTA when present and deriving (and optionally caching)
// it from the genome otherwise.
func dyadEntries(ctx context.Context, nucPosPath, genomePath string, opts BackgroundOpts) (EntryIterator, func() error, error) {
	if opts.NucFastaPath != "" {
		if _, err := os.Stat(opts.NucFastaPath); err == nil {
			log.Printf("found existing nucleosome fasta file: %s", opts.NucFastaPath)
			f, err := os.Open(opts.NucFastaPath)
			if err != nil {
				return nil, nil, err
			}
			return fasta.NewEntryReader(f), f.Close, nil
		}
	}

	fa, err := loadGenome(ctx, genomePath)
	if err != nil {
		return nil, nil, err
	}
	// Expand far enough past the tracked range that a pentanucleotide context
	// is extractable at the outermost offsets.
	pad := NucleosomeRadius + 2 + opts.LinkerOffset
	coords, err := newDyadCoordReader(nucPosPath, pad)
	if err != nil {
		return nil, nil, err
	}
	extractor := fasta.NewExtractor(fa, coords, false)
	if opts.NucFastaPath == "" {
		return extractor, coords.Close, nil
	}

	// Materialize the expanded sequences first, then stream them back, so the
	// cache on disk is exactly what was counted.
	log.Printf("writing expanded nucleosome sequences to %s", opts.NucFastaPath)
	if err := writeEntryFile(opts.NucFastaPath, extractor); err != nil {
		coords.Close()
		return nil, nil, err
	}
	if err := coords.Close(); err != nil {
		return nil, nil, err
	}
	f, err := os.Open(opts.NucFastaPath)
	if err != nil {
		return nil, nil, err
	}
	return fasta.NewEntryReader(f), f.Close, nil
}

func writeEntryFile(path string, entries EntryIterator) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if e := f.Close(); e != nil && err == nil {
			err = e
		}
	}()
	w := fasta.NewEntryWriter(f)
	for {
		e, err := entries.Next()
		if err == io.EOF {
			return w.Flush()
		}
		if err != nil {
			return err
		}
		if err := w.Write(e); err != nil {
			return err
		}
	}
}

func readCountsFile(path string, opts BackgroundOpts) (counts *DyadContextCounts, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if e := f.Close(); e != nil && err == nil {
			err = e
		}
	}()
	if counts, err = ReadDyadContextCounts(f); err != nil {
		return nil, err
	}
	if counts.ContextWidth() != opts.ContextWidth || counts.LinkerOffset() != opts.LinkerOffset {
		return nil, &RangeError{Msg: fmt.Sprintf(
			"%s holds counts for context width %d and linker offset %d; expected %d and %d",
			path, counts.ContextWidth(), counts.LinkerOffset(), opts.ContextWidth, opts.LinkerOffset)}
	}
	return counts, nil
}

// dyadCoordReader streams nucleosome dyad coordinates expanded by pad bases
// on each side, skipping (and logging) dyads whose window would cross the
// start of the chromosome.  The nucleosome map needs only the first three
// bed columns; extraction is unstranded.
type dyadCoordReader struct {
	f    *os.File
	sc   *bufio.Scanner
	path string
	line int
	pad  int
}

func newDyadCoordReader(path string, pad int) (*dyadCoordReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &dyadCoordReader{f: f, sc: bufio.NewScanner(f), path: path, pad: pad}, nil
}

// Next implements fasta.CoordReader.
func (r *dyadCoordReader) Next() (fasta.Coord, error) {
	for r.sc.Scan() {
		r.line++
		fields := strings.Split(r.sc.Text(), "\t")
		if len(fields) < 3 {
			return fasta.Coord{}, &FormatError{r.path, r.line, fmt.Sprintf(
				"nucleosome map entries need at least 3 tab-separated fields; got %d", len(fields))}
		}
		start, err := strconv.Atoi(fields[1])
		if err != nil {
			return fasta.Coord{}, &FormatError{r.path, r.line, fmt.Sprintf("start position %q is not an integer", fields[1])}
		}
		end, err := strconv.Atoi(fields[2])
		if err != nil {
			return fasta.Coord{}, &FormatError{r.path, r.line, fmt.Sprintf("end position %q is not an integer", fields[2])}
		}
		start -= r.pad
		end += r.pad
		if start < 0 {
			log.Printf("%s:%d: nucleosome at chromosome %s with expanded start position %d extends into invalid positions; skipping",
				r.path, r.line, fields[0], start)
			continue
		}
		return fasta.Coord{Chrom: fields[0], Start: start, End: end, Strand: '+'}, nil
	}
	if err := r.sc.Err(); err != nil {
		return fasta.Coord{}, err
	}
	return fasta.Coord{}, io.EOF
}

func (r *dyadCoordReader) Close() error {
	return r.f.Close()
}
