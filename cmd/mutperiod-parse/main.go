package main

/*
mutperiod-parse validates a custom bed file of mutation records against a
reference genome, resolving "." auto-acquire sentinels in place, and writes
the normalized (pyrimidine-strand) records used by the rest of the pipeline.
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
	genomePath = flag.String("genome", "", "Reference genome FASTA path (required)")
	outPath    = flag.String("out", "", "Output path for the normalized mutation bed (required)")
)

func parseUsage() {
	fmt.Printf("Usage: %s [OPTIONS] bedpath\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = parseUsage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 {
		log.Fatalf("Exactly one positional argument (bedpath) expected; got %d", flag.NArg())
	}
	if *genomePath == "" || *outPath == "" {
		log.Fatalf("Both -genome and -out are required")
	}
	ctx := vcontext.Background()
	if err := mutperiod.ParseBed(ctx, flag.Arg(0), *genomePath, *outPath); err != nil {
		log.Fatalf("%v", err)
	}
}
