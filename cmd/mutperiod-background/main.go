package main

/*
mutperiod-background computes the expected mutation background at each
position relative to the nucleosome dyad, by counting nucleotide contexts
across a map of strongly positioned nucleosomes and weighting them with a
per-context background mutation-rate table.
*/

import (
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/bmorledge-hampton19/mutperiod/mutperiod"
)

var (
	genomePath   = flag.String("genome", "", "Reference genome FASTA path (required)")
	ratePath     = flag.String("rates", "", "Per-context background mutation-rate table path (required)")
	outPath      = flag.String("out", "", "Output path for the expected-mutation background (required)")
	contextWidth = flag.Int("context", mutperiod.DefaultBackgroundOpts.ContextWidth, "Width of the counted contexts: 1, 3, or 5")
	linkerOffset = flag.Int("linker", mutperiod.DefaultBackgroundOpts.LinkerOffset, "Linker DNA to include beyond the +-73 nucleosome footprint: 0 or 30")
	nucFastaPath = flag.String("nuc-fasta", "", "Optional cache path for the expanded nucleosome sequences; reused when it exists")
	countsPath   = flag.String("counts", "", "Optional cache path for the dyad-position context counts; reused when it exists")
)

func backgroundUsage() {
	fmt.Printf("Usage: %s [OPTIONS] nucpospath\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = backgroundUsage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 {
		log.Fatalf("Exactly one positional argument (nucpospath) expected; got %d", flag.NArg())
	}
	if *genomePath == "" || *ratePath == "" || *outPath == "" {
		log.Fatalf("-genome, -rates, and -out are all required")
	}
	ctx := vcontext.Background()
	opts := mutperiod.BackgroundOpts{
		ContextWidth: *contextWidth,
		LinkerOffset: *linkerOffset,
		NucFastaPath: *nucFastaPath,
		CountsPath:   *countsPath,
	}
	if err := mutperiod.GenerateBackground(ctx, flag.Arg(0), *genomePath, *ratePath, *outPath, opts); err != nil {
		log.Fatalf("%v", err)
	}
}
