package ioformats

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pangenome/gfmi/errs"
	"github.com/pangenome/gfmi/graph"
)

// ParsePermutation reads one integer vid per line from r (spec.md §6).
// Blank lines are skipped. path is used only for error context.
func ParsePermutation(r io.Reader, path string) ([]graph.VID, error) {
	var perm []graph.VID

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		n, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			return nil, wrapParseErr(path, lineNo, fmt.Errorf("%w: %v", errs.ErrInputParse, err))
		}

		perm = append(perm, graph.VID(n))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errs.ErrIO, path, err)
	}

	return perm, nil
}

// ValidatePermutation checks that perm is a bijection onto g's vertex ids:
// length |V|, every vid appearing exactly once (spec.md §6's cardinality
// requirement, checked here rather than left implicit in the caller).
func ValidatePermutation(perm []graph.VID, g *graph.Graph) error {
	if len(perm) != g.NumVertices() {
		return fmt.Errorf("%w: permutation has %d entries, graph has %d vertices", errs.ErrMismatch, len(perm), g.NumVertices())
	}

	seen := make(map[graph.VID]bool, len(perm))
	for _, v := range perm {
		if g.Vertex(v) == nil {
			return fmt.Errorf("%w: permutation references unknown vid %d", errs.ErrMismatch, v)
		}
		if seen[v] {
			return fmt.Errorf("%w: permutation contains vid %d more than once", errs.ErrMismatch, v)
		}
		seen[v] = true
	}

	return nil
}
