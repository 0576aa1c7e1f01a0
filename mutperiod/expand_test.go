package mutperiod

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestExpandWindow(t *testing.T) {
	tests := []struct {
		start, end, width  int
		wantStart, wantEnd int
	}{
		{100, 101, 3, 99, 102},
		{100, 101, 5, 98, 103},
		{0, 1, 3, -1, 2},
		{10, 13, 3, 10, 13}, // a 3-wide interval expands to itself
		{10, 13, 5, 9, 14},
	}
	for _, test := range tests {
		start, end := expandWindow(test.start, test.end, test.width)
		if start != test.wantStart || end != test.wantEnd {
			t.Errorf("expandWindow(%d, %d, %d) = (%d, %d), want (%d, %d)",
				test.start, test.end, test.width, start, end, test.wantStart, test.wantEnd)
		}
	}
}

func expandTestFiles(t *testing.T, lines ...string) (bedPath, genomePath, outPath string) {
	dir := t.TempDir()
	genomePath = filepath.Join(dir, "genome.fa")
	assert.NoError(t, os.WriteFile(genomePath, []byte(">chr1\nACGTACGTACGT\n"), 0666))
	bedPath = filepath.Join(dir, "mutations.bed")
	assert.NoError(t, os.WriteFile(bedPath, []byte(strings.Join(lines, "\n")+"\n"), 0666))
	outPath = filepath.Join(dir, "expanded.bed")
	return
}

func TestExpandContextTrinuc(t *testing.T) {
	bedPath, genomePath, outPath := expandTestFiles(t,
		"chr1\t0\t1\tA\tT\t+\t.", // window would start at -1: dropped
		"chr1\t5\t6\tC\tT\t+\t.",
		"chr1\t9\t10\tC\tT\t-\t.")
	assert.NoError(t, ExpandContext(context.Background(), bedPath, genomePath, outPath, 3))

	data, err := os.ReadFile(outPath)
	assert.NoError(t, err)
	// Coordinates are untouched; only the context column changes, reverse
	// complemented on the minus strand.
	expect.EQ(t, string(data), "chr1\t5\t6\tACG\tT\t+\t.\nchr1\t9\t10\tCGT\tT\t-\t.\n")
}

func TestExpandContextPentanuc(t *testing.T) {
	bedPath, genomePath, outPath := expandTestFiles(t, "chr1\t5\t6\tC\tT\t+\t.")
	assert.NoError(t, ExpandContext(context.Background(), bedPath, genomePath, outPath, 5))
	data, err := os.ReadFile(outPath)
	assert.NoError(t, err)
	expect.EQ(t, string(data), "chr1\t5\t6\tTACGT\tT\t+\t.\n")
}

func TestExpandContextIgnoresDeletionWidth(t *testing.T) {
	// The leading record deletes three bases, so its reference column is
	// three bases wide without being a trinucleotide context; only the
	// substitution record speaks for the file's current width.
	bedPath, genomePath, outPath := expandTestFiles(t,
		"chr1\t4\t7\tACG\t*\t+\t.",
		"chr1\t9\t10\tC\tT\t+\t.")
	assert.NoError(t, ExpandContext(context.Background(), bedPath, genomePath, outPath, 3))
	data, err := os.ReadFile(outPath)
	assert.NoError(t, err)
	expect.EQ(t, string(data), "chr1\t4\t7\tACG\t*\t+\t.\nchr1\t9\t10\tACG\tT\t+\t.\n")
}

func TestExpandContextWidthChecks(t *testing.T) {
	var rangeErr *RangeError

	bedPath, genomePath, outPath := expandTestFiles(t, "chr1\t5\t6\tC\tT\t+\t.")
	err := ExpandContext(context.Background(), bedPath, genomePath, outPath, 4)
	if !errors.As(err, &rangeErr) {
		t.Fatalf("got %v, want RangeError for even width", err)
	}

	// A file already in trinucleotide context cannot be "expanded" to the
	// same width.
	bedPath, genomePath, outPath = expandTestFiles(t, "chr1\t5\t6\tACG\tT\t+\t.")
	err = ExpandContext(context.Background(), bedPath, genomePath, outPath, 3)
	if !errors.As(err, &rangeErr) {
		t.Fatalf("got %v, want RangeError for non-increasing width", err)
	}
	assert.NoError(t, ExpandContext(context.Background(), bedPath, genomePath, outPath, 5))
	data, err := os.ReadFile(outPath)
	assert.NoError(t, err)
	expect.EQ(t, string(data), "chr1\t5\t6\tTACGT\tT\t+\t.\n")
}
