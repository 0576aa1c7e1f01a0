package mutperiod

import (
	"fmt"
	"io"

	"github.com/bmorledge-hampton19/mutperiod/encoding/fasta"
)

// EntryIterator yields reference-sequence entries strictly in the order they
// were produced.  Next returns io.EOF after the final entry.
type EntryIterator interface {
	Next() (fasta.Entry, error)
}

// Key identifies an interval within a position-ordered stream.
type Key struct {
	Chrom  string
	Start  int
	End    int
	Strand byte
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d-%d(%c)", k.Chrom, k.Start, k.End, k.Strand)
}

// Matcher performs a forward-only lockstep join between a driving sequence of
// keys and a reference stream of entries.  For each key it advances the
// stream, discarding non-matching entries, until one with an equal key is
// found.  The matched entry is retained as the current lookahead, so a
// repeated lookup of the same key returns the same entry; everything before
// it is gone for good.
type Matcher struct {
	entries  EntryIterator
	cur      fasta.Entry
	have     bool
	matchEnd bool
}

// NewMatcher returns a Matcher over the given entry stream.  When matchEnd is
// false, keys are compared on (chrom, start, strand) only.
func NewMatcher(entries EntryIterator, matchEnd bool) *Matcher {
	return &Matcher{entries: entries, matchEnd: matchEnd}
}

// Find returns the first entry at or after the stream cursor whose key equals
// k.  If the stream is exhausted first, it returns a MatchNotFoundError: the
// driving and reference streams were not derived from a compatibly ordered
// basis.
func (m *Matcher) Find(k Key) (fasta.Entry, error) {
	for {
		if !m.have {
			e, err := m.entries.Next()
			if err == io.EOF {
				return fasta.Entry{}, &MatchNotFoundError{Key: k}
			}
			if err != nil {
				return fasta.Entry{}, err
			}
			m.cur, m.have = e, true
		}
		if m.matches(k) {
			return m.cur, nil
		}
		m.have = false
	}
}

func (m *Matcher) matches(k Key) bool {
	if m.cur.Chrom != k.Chrom || m.cur.Start != k.Start || m.cur.Strand != k.Strand {
		return false
	}
	return !m.matchEnd || m.cur.End == k.End
}
