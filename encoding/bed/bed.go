// Package bed parses the custom tab-separated mutation interval format:
//
//	chrom  start  end  ref  alt  strand  [cohort  [reserved]]
//
// Start is 0-based, end is 1-based (half-open).  The ref column holds the
// reference base(s), "." to request auto-acquisition from the genome, or "*"
// to denote an insertion between the two flanking bases; after context
// expansion it holds the surrounding nucleotide context.  The alt column
// holds the substituted base(s), "*" for a deletion, or "OTHER" for any
// other lesion.  Strand is '+', '-', or '.' to request auto-acquisition.
// The optional cohort column carries a grouping label, with "." denoting
// membership in no cohort.
package bed

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Sentinel field values.
const (
	AutoAcquire = "." // ref or strand to be resolved from the genome
	Insertion   = "*" // ref column: alteration inserted between flanking bases
	Deletion    = "*" // alt column: reference base(s) deleted
	OtherAlt    = "OTHER"
	NoCohort    = "."
)

// Record is one interval record.  Records are parsed from a single line,
// mutated in place only to resolve the auto-acquire sentinels, and written
// back out once.
type Record struct {
	Chrom  string
	Start  int
	End    int
	Ref    string
	Alt    string
	Strand byte

	// Cohort is the optional grouping label; meaningful only when HasCohort
	// is set.
	Cohort    string
	HasCohort bool

	// Extra holds any reserved trailing columns, preserved verbatim.
	Extra []string
}

// Parse parses one tab-separated line into a Record.  It enforces only the
// structural rules (field count, integer coordinates, single-character
// strand); content rules are the validator's concern.
func Parse(line string) (Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 6 || len(fields) > 8 {
		return Record{}, errors.Errorf("entry has %d tab-separated fields; expected 6, 7, or 8", len(fields))
	}
	var rec Record
	var err error
	rec.Chrom = fields[0]
	if rec.Start, err = strconv.Atoi(fields[1]); err != nil {
		return Record{}, errors.Errorf("start position %q is not an integer", fields[1])
	}
	if rec.End, err = strconv.Atoi(fields[2]); err != nil {
		return Record{}, errors.Errorf("end position %q is not an integer", fields[2])
	}
	rec.Ref = fields[3]
	rec.Alt = fields[4]
	if len(fields[5]) != 1 {
		return Record{}, errors.Errorf("strand %q is not a single character", fields[5])
	}
	rec.Strand = fields[5][0]
	if len(fields) >= 7 {
		rec.Cohort = fields[6]
		rec.HasCohort = true
	}
	if len(fields) == 8 {
		rec.Extra = fields[7:]
	}
	return rec, nil
}

// Fields returns the record's columns in file order.
func (r Record) Fields() []string {
	fields := []string{
		r.Chrom,
		strconv.Itoa(r.Start),
		strconv.Itoa(r.End),
		r.Ref,
		r.Alt,
		string(r.Strand),
	}
	if r.HasCohort {
		fields = append(fields, r.Cohort)
	}
	return append(fields, r.Extra...)
}

// String returns the record as a tab-separated line, without a trailing
// newline.
func (r Record) String() string {
	return strings.Join(r.Fields(), "\t")
}
