package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pangenome/gfmi/cmd/gfmi/internal/clilog"
	"github.com/pangenome/gfmi/cmd/gfmi/internal/container"
	"github.com/pangenome/gfmi/encodedgraph"
	"github.com/pangenome/gfmi/errs"
	"github.com/pangenome/gfmi/fmi"
	"github.com/pangenome/gfmi/graph"
	"github.com/pangenome/gfmi/ioformats"
	"github.com/pangenome/gfmi/storage"
)

func cmdIndex(args []string) int {
	fs := flag.NewFlagSet("index", flag.ContinueOnError)
	inputPath := fs.String("i", "", "input graph path (default stdin)")
	isRGFA := fs.Bool("g", false, "input is rGFA (default fmdg)")
	outputPath := fs.String("o", "", "output .fmdi path (default stdout)")
	permPath := fs.String("p", "", "permutation file path")
	isaRate := fs.Int("s", 256, "ISA sample rate")
	rankRate := fs.Int("r", 256, "rank sample rate")
	codecName := fs.String("c", "none", "at-rest compression codec: none, zstd, s2, lz4")
	verbose := fs.Bool("v", false, "verbose")
	if err := fs.Parse(args); err != nil {
		return -1
	}

	log := clilog.New(os.Stderr, *verbose)

	if *rankRate != fixedRankSampleRate {
		fmt.Fprintf(os.Stderr, "gfmi: %v: -r must be %d (rank sample rate is fixed at build time)\n", errs.ErrUnsupported, fixedRankSampleRate)
		return -1
	}

	ct, err := parseCodecName(*codecName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gfmi: %v\n", err)
		return -1
	}

	in, closeIn, err := openInput(*inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gfmi: %v\n", err)
		return -1
	}
	defer closeIn()

	log.Printf("parsing input graph (rgfa=%v)", *isRGFA)

	var g *graph.Graph
	if *isRGFA {
		g, _, err = ioformats.ParseRGFA(in, inputLabel(*inputPath))
	} else {
		g, err = ioformats.ParseFMDG(in, inputLabel(*inputPath))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "gfmi: %v\n", err)
		return -1
	}
	g.Freeze()

	perm, err := loadOrIdentityPermutation(*permPath, g)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gfmi: %v\n", err)
		return -1
	}

	log.Printf("encoding graph: %d vertices", g.NumVertices())

	eg, err := encodedgraph.Build(g)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gfmi: %v\n", err)
		return -1
	}

	text, _, err := fmi.BuildText(eg, perm)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gfmi: %v\n", err)
		return -1
	}

	log.Printf("building fm-index over %d characters", len(text))

	idx, err := fmi.Build(text, fmi.WithISARate(*isaRate))
	if err != nil {
		fmt.Fprintf(os.Stderr, "gfmi: %v\n", err)
		return -1
	}

	out, closeOut, err := openOutput(*outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gfmi: %v\n", err)
		return -1
	}
	defer closeOut()

	bundle := container.Bundle{EncodedGraph: eg.ToBuffer(), Index: idx.ToBuffer(), Permutation: perm}

	wrapped, err := storage.Wrap(container.Write(bundle), ct)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gfmi: %v\n", err)
		return -1
	}

	if _, err := out.Write(wrapped); err != nil {
		fmt.Fprintf(os.Stderr, "gfmi: %v: %v\n", errs.ErrIO, err)
		return -1
	}

	log.Printf("wrote index: %d chars, isa_rate=%d, codec=%s", idx.NoChars(), idx.ISARate(), ct)

	return 0
}

// fixedRankSampleRate is the rank-sampling granularity baked into fmi's
// superblock/block layout constants (spec.md §9: the reference
// implementation's configurable rank sample rate became fixed compile-time
// layout constants in this port, see DESIGN.md). The -r flag is accepted
// for CLI compatibility but only this value is honored.
const fixedRankSampleRate = 256

func loadOrIdentityPermutation(path string, g *graph.Graph) ([]graph.VID, error) {
	if path == "" {
		return identityPermutation(g), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errs.ErrIO, path, err)
	}
	defer f.Close()

	perm, err := ioformats.ParsePermutation(f, path)
	if err != nil {
		return nil, err
	}
	if err := ioformats.ValidatePermutation(perm, g); err != nil {
		return nil, err
	}

	return perm, nil
}

func identityPermutation(g *graph.Graph) []graph.VID {
	return g.VertexIDs()
}

func inputLabel(path string) string {
	if path == "" {
		return "<stdin>"
	}

	return path
}

func openInput(path string) (io.Reader, func() error, error) {
	if path == "" {
		return os.Stdin, func() error { return nil }, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", errs.ErrIO, path, err)
	}

	return f, f.Close, nil
}

func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", errs.ErrIO, path, err)
	}

	return f, f.Close, nil
}
