package main

/*
mutperiod-expand rewrites a normalized mutation bed file so that each record
carries the tri- or pentanucleotide context surrounding the mutation,
extracted strand-aware from a reference genome.
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
	outPath      = flag.String("out", "", "Output path for the context-expanded mutation bed (required)")
	contextWidth = flag.Int("context", 3, "Width of the expanded context: 3 or 5")
)

func expandUsage() {
	fmt.Printf("Usage: %s [OPTIONS] bedpath\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = expandUsage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 {
		log.Fatalf("Exactly one positional argument (bedpath) expected; got %d", flag.NArg())
	}
	if *genomePath == "" || *outPath == "" {
		log.Fatalf("Both -genome and -out are required")
	}
	ctx := vcontext.Background()
	if err := mutperiod.ExpandContext(ctx, flag.Arg(0), *genomePath, *outPath, *contextWidth); err != nil {
		log.Fatalf("%v", err)
	}
}
