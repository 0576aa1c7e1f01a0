package fasta_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/bmorledge-hampton19/mutperiod/encoding/fasta"
)

var fastaData = ">seq1\n" + "ACGTA\nCGTAC\nGT\n" + ">seq2 A viral sequence\n" + "ACGT\n" + "ACGT\n"

func TestGet(t *testing.T) {
	tests := []struct {
		seq   string
		start int
		end   int
		want  string
		err   error
	}{
		{"seq1", 1, 2, "C", nil},
		{"seq1", 1, 6, "CGTAC", nil},
		{"seq1", 0, 12, "ACGTACGTACGT", nil},
		{"seq1", 10, 12, "GT", nil},
		{"seq2", 0, 8, "ACGTACGT", nil},
		{"seq2", 2, 5, "GTA", nil},
		{"seq0", 0, 1, "", fmt.Errorf("sequence not found: seq0")},
		{"seq1", 10, 13, "", fmt.Errorf("invalid query range 10 - 13 for sequence seq1 with length 12")},
		{"seq1", 4, 3, "", fmt.Errorf("start must be less than end")},
	}
	fa, err := fasta.New(strings.NewReader(fastaData))
	if err != nil {
		t.Fatalf("couldn't create Fasta: %v", err)
	}
	for _, tt := range tests {
		got, err := fa.Get(tt.seq, tt.start, tt.end)
		if (err == nil) != (tt.err == nil) {
			t.Errorf("unexpected error: want %v, got %v", tt.err, err)
		}
		if got != tt.want {
			t.Errorf("unexpected sequence: want %s, got %s", tt.want, got)
		}
	}
}

func TestLen(t *testing.T) {
	fa, err := fasta.New(strings.NewReader(fastaData))
	if err != nil {
		t.Fatalf("couldn't create Fasta: %v", err)
	}
	if n, err := fa.Len("seq1"); err != nil || n != 12 {
		t.Errorf("Len(seq1) = %d, %v; want 12", n, err)
	}
	if n, err := fa.Len("seq2"); err != nil || n != 8 {
		t.Errorf("Len(seq2) = %d, %v; want 8", n, err)
	}
	if _, err := fa.Len("seq0"); err == nil {
		t.Errorf("Len(seq0) should fail")
	}
}

func TestSeqNames(t *testing.T) {
	fa, err := fasta.New(strings.NewReader(fastaData))
	if err != nil {
		t.Fatalf("couldn't create Fasta: %v", err)
	}
	names := fa.SeqNames()
	if len(names) != 2 || names[0] != "seq1" || names[1] != "seq2" {
		t.Errorf("unexpected sequence names: %v", names)
	}
}

func TestMalformed(t *testing.T) {
	if _, err := fasta.New(strings.NewReader("ACGT\n>seq1\nACGT\n")); err == nil {
		t.Errorf("expected error for sequence data before any header")
	}
}

func TestGenerateIndex(t *testing.T) {
	var index bytes.Buffer
	if err := fasta.GenerateIndex(&index, strings.NewReader(fastaData)); err != nil {
		t.Fatalf("couldn't generate index: %v", err)
	}
	want := "seq1\t12\t6\t5\t6\nseq2\t8\t44\t4\t5\n"
	if index.String() != want {
		t.Errorf("unexpected index: got %q, want %q", index.String(), want)
	}

	if err := fasta.GenerateIndex(&bytes.Buffer{}, strings.NewReader("")); err == nil {
		t.Errorf("expected error for empty FASTA data")
	}
}

// TestIndexedMatchesInMemory checks that the index-backed reader returns the
// same results as the in-memory one over a range of queries.
func TestIndexedMatchesInMemory(t *testing.T) {
	var index bytes.Buffer
	if err := fasta.GenerateIndex(&index, strings.NewReader(fastaData)); err != nil {
		t.Fatalf("couldn't generate index: %v", err)
	}
	indexed, err := fasta.NewIndexed(strings.NewReader(fastaData), &index)
	if err != nil {
		t.Fatalf("couldn't create indexed Fasta: %v", err)
	}
	inMemory, err := fasta.New(strings.NewReader(fastaData))
	if err != nil {
		t.Fatalf("couldn't create Fasta: %v", err)
	}

	names := indexed.SeqNames()
	if len(names) != 2 || names[0] != "seq1" || names[1] != "seq2" {
		t.Fatalf("unexpected sequence names: %v", names)
	}
	for _, name := range names {
		length, err := inMemory.Len(name)
		if err != nil {
			t.Fatal(err)
		}
		if n, err := indexed.Len(name); err != nil || n != length {
			t.Errorf("Len(%s) = %d, %v; want %d", name, n, err, length)
		}
		for start := 0; start < length; start++ {
			for end := start + 1; end <= length; end++ {
				want, err := inMemory.Get(name, start, end)
				if err != nil {
					t.Fatal(err)
				}
				got, err := indexed.Get(name, start, end)
				if err != nil {
					t.Fatalf("Get(%s, %d, %d): %v", name, start, end, err)
				}
				if got != want {
					t.Errorf("Get(%s, %d, %d) = %q, want %q", name, start, end, got, want)
				}
			}
		}
	}
	if _, err := indexed.Get("seq0", 0, 1); err == nil {
		t.Errorf("Get(seq0) should fail")
	}
	if _, err := indexed.Get("seq1", 10, 13); err == nil {
		t.Errorf("out-of-range Get should fail")
	}
}
