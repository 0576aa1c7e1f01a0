package mutperiod

import (
	"context"
	"io"
	"os"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"

	"github.com/bmorledge-hampton19/mutperiod/encoding/fasta"
)

// loadGenome opens the genome FASTA at path.  A samtools-style index beside an
// uncompressed local file (path + ".fai") is used for on-demand access;
// otherwise the whole (possibly compressed) file is read into memory.  Genome
// handles live for the whole run, so the indexed file is left to close at
// process exit.
func loadGenome(ctx context.Context, path string) (fa fasta.Fasta, err error) {
	if idx, err := os.Open(path + ".fai"); err == nil {
		f, err := os.Open(path)
		if err != nil {
			idx.Close()
			return nil, err
		}
		log.Printf("using FASTA index %s.fai", path)
		fa, err := fasta.NewIndexed(f, idx)
		if e := idx.Close(); e != nil && err == nil {
			err = e
		}
		if err != nil {
			f.Close()
			return nil, err
		}
		return fa, nil
	}

	r, closer, err := openReader(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if e := closer(); e != nil && err == nil {
			err = e
		}
	}()
	return fasta.New(r)
}

// openReader opens path for reading, transparently decompressing it based on
// the path extension.  The returned closer releases both layers.
func openReader(ctx context.Context, path string) (io.Reader, func() error, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	var r io.Reader = in.Reader(ctx)
	var unzip io.ReadCloser
	if u := compress.NewReaderPath(r, in.Name()); u != nil {
		r = u
		unzip = u
	}
	closer := func() error {
		var err error
		if unzip != nil {
			err = unzip.Close()
		}
		if e := in.Close(ctx); e != nil && err == nil {
			err = e
		}
		return err
	}
	return r, closer, nil
}
