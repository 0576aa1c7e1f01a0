package fasta

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Entry is one coordinate-keyed sequence block, as produced by extracting a
// genomic interval from a reference genome.  The header format is
// ">chrom:start-end(strand)", e.g. ">chr1:100-105(+)".  Start is 0-based,
// end is 1-based (half-open), and strand is '+', '-', or '.'.
type Entry struct {
	Chrom  string
	Start  int
	End    int
	Strand byte
	Seq    string
}

// Name returns the header form of the entry's coordinates, without the
// leading '>'.
func (e Entry) Name() string {
	return fmt.Sprintf("%s:%d-%d(%c)", e.Chrom, e.Start, e.End, e.Strand)
}

// Headers consist of a chromosome name, a 0-based start, a 1-based end and a
// strand character.  For example: ">chr3:1000-1147(-)".
var entryHeaderRegExp = regexp.MustCompile(`^(\S+):(\d+)-(\d+)\(([-+.])\)$`)

// EntryReader streams coordinate-keyed entries from FASTA-formatted data.
// Entries are yielded strictly in file order; once read, an entry is never
// revisited.
type EntryReader struct {
	br      *bufio.Reader
	pending string // header line read ahead of its sequence, without '>'.
	eof     bool
}

// NewEntryReader returns an EntryReader that reads from r.
func NewEntryReader(r io.Reader) *EntryReader {
	return &EntryReader{br: bufio.NewReader(r)}
}

// Next returns the next entry in the stream, or io.EOF after the last one.
func (er *EntryReader) Next() (Entry, error) {
	for er.pending == "" {
		if er.eof {
			return Entry{}, io.EOF
		}
		line, err := er.readLine()
		if err != nil {
			return Entry{}, err
		}
		if len(line) > 0 && line[0] == '>' {
			er.pending = line[1:]
		} else if len(line) > 0 {
			return Entry{}, errors.Errorf("fasta: sequence data %q before any header", line)
		}
	}

	matches := entryHeaderRegExp.FindStringSubmatch(er.pending)
	if matches == nil {
		return Entry{}, errors.Errorf("fasta: header %q is not of the form chrom:start-end(strand)", er.pending)
	}
	er.pending = ""
	e := Entry{Chrom: matches[1], Strand: matches[4][0]}
	e.Start, _ = strconv.Atoi(matches[2])
	e.End, _ = strconv.Atoi(matches[3])

	var seq strings.Builder
	for !er.eof {
		line, err := er.readLine()
		if err != nil {
			return Entry{}, err
		}
		if len(line) > 0 && line[0] == '>' {
			er.pending = line[1:]
			break
		}
		seq.WriteString(line)
	}
	e.Seq = seq.String()
	return e, nil
}

func (er *EntryReader) readLine() (string, error) {
	line, err := er.br.ReadString('\n')
	if err == io.EOF {
		er.eof = true
	} else if err != nil {
		return "", errors.Wrap(err, "fasta: couldn't read entry data")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// EntryWriter writes coordinate-keyed entries in the FASTA form understood by
// EntryReader, one header line and one sequence line per entry.
type EntryWriter struct {
	w *bufio.Writer
}

// NewEntryWriter returns an EntryWriter that writes to w.
func NewEntryWriter(w io.Writer) *EntryWriter {
	return &EntryWriter{w: bufio.NewWriter(w)}
}

// Write appends one entry.
func (ew *EntryWriter) Write(e Entry) error {
	if _, err := fmt.Fprintf(ew.w, ">%s\n%s\n", e.Name(), e.Seq); err != nil {
		return err
	}
	return nil
}

// Flush flushes buffered entries to the underlying writer.
func (ew *EntryWriter) Flush() error {
	return ew.w.Flush()
}
