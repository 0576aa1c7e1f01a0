package fasta

import (
	"bufio"
	"bytes"
	"io"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/grailbio/base/tsv"
	"github.com/pkg/errors"
)

var indexLineRegExp = regexp.MustCompile(`^(\S+)\t(\d+)\t(\d+)\t(\d+)\t(\d+)$`)

// GenerateIndex writes an index for the FASTA data in r.  The index format is
// defined by "samtools faidx" (http://www.htslib.org/doc/faidx.html) and can
// be passed to NewIndexed for random access without holding the sequences in
// memory.
func GenerateIndex(w io.Writer, r io.Reader) error {
	var (
		out       = tsv.NewWriter(w)
		br        = bufio.NewReader(r)
		name      string
		seqStart  int64
		bases     int
		lineBases int
		lineWidth int
		offset    int64
		sawHeader bool
	)
	flush := func() error {
		out.WriteString(name)
		out.WriteInt64(int64(bases))
		out.WriteInt64(seqStart)
		out.WriteInt64(int64(lineBases))
		out.WriteInt64(int64(lineWidth))
		return out.EndLine()
	}
	for {
		fullLine, err := br.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return errors.Wrap(err, "couldn't read FASTA data")
		}
		eof := err == io.EOF
		offset += int64(len(fullLine))
		line := bytes.TrimRight(fullLine, "\r\n")
		if len(line) > 0 {
			if line[0] == '>' {
				if sawHeader {
					if err := flush(); err != nil {
						return err
					}
				}
				name = strings.SplitN(string(line[1:]), " ", 2)[0]
				if name == "" {
					return errors.New("malformed FASTA file: empty sequence name")
				}
				sawHeader = true
				seqStart = offset
				bases, lineBases, lineWidth = 0, 0, 0
			} else {
				if !sawHeader {
					return errors.Errorf("malformed FASTA file: sequence data %q before any header", line)
				}
				if lineWidth == 0 {
					lineBases = len(line)
					lineWidth = len(fullLine)
				}
				bases += len(line)
			}
		}
		if eof {
			break
		}
	}
	if !sawHeader {
		return errors.New("malformed FASTA file: no sequences")
	}
	if err := flush(); err != nil {
		return err
	}
	return out.Flush()
}

type indexEntry struct {
	name      string
	length    int
	offset    int64
	lineBases int
	lineWidth int
}

type indexedFasta struct {
	mu       sync.Mutex
	r        io.ReadSeeker
	seqs     map[string]indexEntry
	seqNames []string
	buf      []byte // caches file contents starting at bufOff
	bufOff   int64
	result   []byte
}

// NewIndexed returns a Fasta that reads sequence data from r on demand, using
// the index to locate it, instead of holding the sequences in memory.
func NewIndexed(r io.ReadSeeker, index io.Reader) (Fasta, error) {
	f := &indexedFasta{r: r, seqs: make(map[string]indexEntry)}
	sc := bufio.NewScanner(index)
	for sc.Scan() {
		m := indexLineRegExp.FindStringSubmatch(sc.Text())
		if m == nil {
			return nil, errors.Errorf("invalid FASTA index line %q", sc.Text())
		}
		ent := indexEntry{name: m[1]}
		ent.length, _ = strconv.Atoi(m[2])
		ent.offset, _ = strconv.ParseInt(m[3], 10, 64)
		ent.lineBases, _ = strconv.Atoi(m[4])
		ent.lineWidth, _ = strconv.Atoi(m[5])
		f.seqs[ent.name] = ent
		f.seqNames = append(f.seqNames, ent.name)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "couldn't read FASTA index")
	}
	return f, nil
}

// Get implements Fasta.Get().
func (f *indexedFasta) Get(seqName string, start, end int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ent, ok := f.seqs[seqName]
	if !ok {
		return "", errors.Errorf("sequence not found: %s", seqName)
	}
	if end <= start {
		return "", errors.New("start must be less than end")
	}
	if start < 0 || end > ent.length {
		return "", errors.Errorf("invalid query range %d - %d for sequence %s with length %d",
			start, end, seqName, ent.length)
	}

	// Line terminators interleave with the bases on disk.
	newlineLen := ent.lineWidth - ent.lineBases
	offset := ent.offset + int64(start) + int64(newlineLen)*int64(start/ent.lineBases)
	firstLineBases := ent.lineBases - start%ent.lineBases
	newlines := 0
	if end-start > firstLineBases {
		newlines = 1 + (end-start-firstLineBases)/ent.lineBases
	}
	raw, err := f.read(offset, end-start+newlines*newlineLen)
	if err != nil {
		return "", err
	}

	if cap(f.result) < end-start {
		f.result = make([]byte, 0, end-start)
	}
	f.result = f.result[:0]
	linePos := start % ent.lineBases
	for _, b := range raw {
		if linePos < ent.lineBases {
			f.result = append(f.result, b)
		}
		linePos++
		if linePos == ent.lineWidth {
			linePos = 0
		}
	}
	return string(f.result), nil
}

// read returns bytes [off, off+n) of the underlying FASTA file, refilling the
// cache window when the range falls outside it.
func (f *indexedFasta) read(off int64, n int) ([]byte, error) {
	if off < f.bufOff || off+int64(n) > f.bufOff+int64(len(f.buf)) {
		if _, err := f.r.Seek(off, io.SeekStart); err != nil {
			return nil, errors.Wrapf(err, "couldn't seek to offset %d", off)
		}
		size := 8192
		if size < n {
			size = n
		}
		if cap(f.buf) < size {
			f.buf = make([]byte, size)
		}
		f.buf = f.buf[:size]
		m, err := io.ReadFull(f.r, f.buf)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			f.buf = f.buf[:m]
			err = nil
		}
		if err != nil {
			return nil, err
		}
		if m < n {
			return nil, errors.New("unexpected end of FASTA data (stale index?)")
		}
		f.bufOff = off
	}
	return f.buf[off-f.bufOff : off-f.bufOff+int64(n)], nil
}

// Len implements Fasta.Len().
func (f *indexedFasta) Len(seqName string) (int, error) {
	ent, ok := f.seqs[seqName]
	if !ok {
		return 0, errors.Errorf("sequence not found: %s", seqName)
	}
	return ent.length, nil
}

// SeqNames implements Fasta.SeqNames().
func (f *indexedFasta) SeqNames() []string {
	return f.seqNames
}
