package bed_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmorledge-hampton19/mutperiod/encoding/bed"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line    string
		want    bed.Record
		wantErr string
	}{
		{
			line: "chr1\t100\t101\tA\tG\t+",
			want: bed.Record{Chrom: "chr1", Start: 100, End: 101, Ref: "A", Alt: "G", Strand: '+'},
		},
		{
			line: "chr1\t100\t101\t.\tG\t.\tDonorA",
			want: bed.Record{Chrom: "chr1", Start: 100, End: 101, Ref: ".", Alt: "G", Strand: '.',
				Cohort: "DonorA", HasCohort: true},
		},
		{
			line: "chrX\t5\t7\t*\tAA\t+\t.\treserved",
			want: bed.Record{Chrom: "chrX", Start: 5, End: 7, Ref: "*", Alt: "AA", Strand: '+',
				Cohort: ".", HasCohort: true, Extra: []string{"reserved"}},
		},
		{line: "chr1\t100\t101\tA\tG", wantErr: "5 tab-separated fields"},
		{line: "chr1\t100\t101\tA\tG\t+\tc1\tr\textra", wantErr: "9 tab-separated fields"},
		{line: "chr1\tone\t101\tA\tG\t+", wantErr: "not an integer"},
		{line: "chr1\t100\tlots\tA\tG\t+", wantErr: "not an integer"},
		{line: "chr1\t100\t101\tA\tG\t++", wantErr: "not a single character"},
	}
	for _, test := range tests {
		got, err := bed.Parse(test.line)
		if test.wantErr != "" {
			if assert.Error(t, err, "Parse(%q)", test.line) {
				assert.Contains(t, err.Error(), test.wantErr, "Parse(%q)", test.line)
			}
			continue
		}
		if assert.NoError(t, err, "Parse(%q)", test.line) {
			assert.Equal(t, test.want, got, "Parse(%q)", test.line)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	lines := []string{
		"chr1\t100\t101\tA\tG\t+",
		"chr2\t0\t1\t.\t*\t-\tDonorB",
		"chrY\t12\t14\t*\tT\t.\t.\treserved",
	}
	for _, line := range lines {
		rec, err := bed.Parse(line)
		require.NoError(t, err)
		assert.Equal(t, line, rec.String())
	}
}
