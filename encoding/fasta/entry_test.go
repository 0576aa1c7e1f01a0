package fasta_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"

	"github.com/bmorledge-hampton19/mutperiod/encoding/fasta"
)

func readAllEntries(t *testing.T, r *fasta.EntryReader) []fasta.Entry {
	var entries []fasta.Entry
	for {
		e, err := r.Next()
		if err == io.EOF {
			return entries
		}
		assert.NoError(t, err)
		entries = append(entries, e)
	}
}

func TestEntryReader(t *testing.T) {
	data := ">chr1:100-105(+)\nACG\nTA\n>chr2:0-2(-)\nGT\n>chr2:7-8(.)\nC\n"
	entries := readAllEntries(t, fasta.NewEntryReader(strings.NewReader(data)))
	expect.EQ(t, entries, []fasta.Entry{
		{Chrom: "chr1", Start: 100, End: 105, Strand: '+', Seq: "ACGTA"},
		{Chrom: "chr2", Start: 0, End: 2, Strand: '-', Seq: "GT"},
		{Chrom: "chr2", Start: 7, End: 8, Strand: '.', Seq: "C"},
	})
}

func TestEntryReaderMalformedHeader(t *testing.T) {
	r := fasta.NewEntryReader(strings.NewReader(">chr1 100 105\nACGTA\n"))
	if _, err := r.Next(); err == nil {
		t.Errorf("expected error for header without coordinates")
	}
}

func TestEntryWriterRoundTrip(t *testing.T) {
	want := []fasta.Entry{
		{Chrom: "chr1", Start: 99, End: 102, Strand: '+', Seq: "ACG"},
		{Chrom: "chr1", Start: 200, End: 205, Strand: '-', Seq: "TTGCA"},
	}
	var buf bytes.Buffer
	w := fasta.NewEntryWriter(&buf)
	for _, e := range want {
		assert.NoError(t, w.Write(e))
	}
	assert.NoError(t, w.Flush())
	got := readAllEntries(t, fasta.NewEntryReader(&buf))
	expect.EQ(t, got, want)
}

// coordSlice is a CoordReader over a fixed coordinate list.
type coordSlice struct {
	coords []fasta.Coord
	next   int
}

func (c *coordSlice) Next() (fasta.Coord, error) {
	if c.next >= len(c.coords) {
		return fasta.Coord{}, io.EOF
	}
	c.next++
	return c.coords[c.next-1], nil
}

func TestExtractor(t *testing.T) {
	fa, err := fasta.New(strings.NewReader(">chr1\nACGTACGT\n"))
	assert.NoError(t, err)
	coords := &coordSlice{coords: []fasta.Coord{
		{Chrom: "chr1", Start: 0, End: 3, Strand: '+'},
		{Chrom: "chr1", Start: 0, End: 3, Strand: '-'},
		{Chrom: "chr1", Start: 5, End: 6, Strand: '.'},
	}}
	x := fasta.NewExtractor(fa, coords, true)
	var got []string
	for {
		e, err := x.Next()
		if err == io.EOF {
			break
		}
		assert.NoError(t, err)
		got = append(got, e.Seq)
	}
	// Minus-strand coordinates are reverse complemented; '.' reads the plus
	// strand as-is.
	expect.EQ(t, got, []string{"ACG", "CGT", "C"})
}

func TestExtractorUnstranded(t *testing.T) {
	fa, err := fasta.New(strings.NewReader(">chr1\nACGTACGT\n"))
	assert.NoError(t, err)
	coords := &coordSlice{coords: []fasta.Coord{{Chrom: "chr1", Start: 0, End: 3, Strand: '-'}}}
	x := fasta.NewExtractor(fa, coords, false)
	e, err := x.Next()
	assert.NoError(t, err)
	expect.EQ(t, e.Seq, "ACG")
}

func TestExtractorOutOfRange(t *testing.T) {
	fa, err := fasta.New(strings.NewReader(">chr1\nACGT\n"))
	assert.NoError(t, err)
	coords := &coordSlice{coords: []fasta.Coord{{Chrom: "chr1", Start: 2, End: 9, Strand: '+'}}}
	if _, err := fasta.NewExtractor(fa, coords, true).Next(); err == nil {
		t.Errorf("expected error for out-of-range extraction")
	}
}

func TestReverseComplement(t *testing.T) {
	tests := []struct{ seq, want string }{
		{"", ""},
		{"A", "T"},
		{"ACGT", "ACGT"},
		{"AACCG", "CGGTT"},
		{"ANT", "ANT"},
		{"AXT", "ANT"},
	}
	for _, test := range tests {
		expect.EQ(t, fasta.ReverseComplement(test.seq), test.want)
	}
}
