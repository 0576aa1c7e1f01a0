// Package mutperiod implements the preprocessing pipeline for nucleosome
// mutation-periodicity analysis: validation and normalization of custom-BED
// mutation records (including auto-acquisition of reference bases and strand
// from a genome), symmetric tri/pentanucleotide context expansion, and
// computation of the expected background mutation signal at each position
// relative to the nucleosome dyad.
//
// The pipeline is a deterministic, single-pass batch transformation over flat
// text files.  Each stage streams its input in order and fails fast on the
// first error; partially written output from a failed stage must be
// discarded.
package mutperiod
