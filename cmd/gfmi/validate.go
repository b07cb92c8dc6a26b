package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pangenome/gfmi/cmd/gfmi/internal/container"
	"github.com/pangenome/gfmi/encodedgraph"
	"github.com/pangenome/gfmi/errs"
	"github.com/pangenome/gfmi/fmi"
	"github.com/pangenome/gfmi/storage"
)

func cmdValidate(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	inputPath := fs.String("i", "", "index path (default stdin)")
	if err := fs.Parse(args); err != nil {
		return -1
	}

	in, closeIn, err := openInput(*inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gfmi: %v\n", err)
		return -1
	}
	defer closeIn()

	data, err := io.ReadAll(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gfmi: %v: %v\n", errs.ErrIO, err)
		return -1
	}

	raw, err := storage.Unwrap(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gfmi: %v\n", err)
		return -1
	}

	bundle, err := container.Read(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gfmi: %v\n", err)
		return -1
	}

	eg, err := encodedgraph.FromBuffer(bundle.EncodedGraph)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gfmi: encoded graph: %v\n", err)
		return -1
	}
	idx, err := fmi.FromBuffer(bundle.Index)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gfmi: fm-index: %v\n", err)
		return -1
	}

	if len(bundle.Permutation) != eg.NumVertices() {
		fmt.Fprintf(os.Stderr, "gfmi: %v: permutation has %d entries, graph has %d vertices\n", errs.ErrMismatch, len(bundle.Permutation), eg.NumVertices())
		return -1
	}

	fmt.Printf("ok: %d vertices, %d chars, isa_rate=%d\n", eg.NumVertices(), idx.NoChars(), idx.ISARate())

	return 0
}
