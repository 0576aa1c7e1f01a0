package mutperiod

import "fmt"

// The error types below classify the fatal conditions a pipeline stage can
// hit.  None are retried; a stage surfaces the first one and stops, leaving
// the caller to decide whether to skip the offending file.

// FormatError reports a malformed or unexpected field in an interval record.
type FormatError struct {
	File string
	Line int
	Msg  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// AlphabetError reports letters outside the permitted base set.
type AlphabetError struct {
	File  string
	Line  int
	Field string
	Value string
}

func (e *AlphabetError) Error() string {
	return fmt.Sprintf("%s:%d: invalid %s %q: expected a string over the four DNA bases or a recognized sentinel",
		e.File, e.Line, e.Field, e.Value)
}

// RangeError reports an invalid interval or context-width relationship.
type RangeError struct {
	File string
	Line int
	Msg  string
}

func (e *RangeError) Error() string {
	if e.File == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// SequenceMismatchError reports a declared sequence that matches neither the
// reference genome nor its reverse complement at the given locus.  This is an
// inconsistency between the input and the genome, not a format problem.
type SequenceMismatchError struct {
	File     string
	Line     int
	Locus    string
	Declared string
}

func (e *SequenceMismatchError) Error() string {
	return fmt.Sprintf("%s:%d: declared sequence %q does not match the genome at %s or its reverse complement",
		e.File, e.Line, e.Declared, e.Locus)
}

// MatchNotFoundError reports that an ordered merge exhausted its reference
// stream without finding an equal key.  It signals that the two streams were
// not produced from a consistent, compatibly ordered basis; the caller must
// treat it as a precondition violation, not a per-record data error.
type MatchNotFoundError struct {
	Key Key
}

func (e *MatchNotFoundError) Error() string {
	return fmt.Sprintf("reached end of reference sequence stream without finding a match for %s", e.Key)
}

// ArithmeticConsistencyError reports window-size arithmetic that violates an
// expected invariant, indicating a malformed or mismatched input window.
type ArithmeticConsistencyError struct {
	Window string
	Msg    string
}

func (e *ArithmeticConsistencyError) Error() string {
	return fmt.Sprintf("window %s: %s", e.Window, e.Msg)
}

// LookupError reports a context missing from the background rate table.  The
// rate table must be exhaustive over observed contexts, including their
// reverse complements.
type LookupError struct {
	Context string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("no background mutation rate for context %q", e.Context)
}
