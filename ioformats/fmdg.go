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

// ParseFMDG reads the fmdg text format from r and builds a graph.Graph.
// Lines are tab-separated: "V\t<vid>\t<label>" or "E\t<src>\t<dst>".
// Comments (lines starting with '#') and blank lines are skipped (spec.md
// §6). path is used only for error context.
func ParseFMDG(r io.Reader, path string) (*graph.Graph, error) {
	g := graph.New()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(sc.Text(), "\t")
		switch fields[0] {
		case "V":
			if len(fields) != 3 {
				return nil, wrapParseErr(path, lineNo, fmt.Errorf("%w: V line needs vid and label, got %d fields", errs.ErrInputParse, len(fields)))
			}

			vid, err := parseVID(fields[1])
			if err != nil {
				return nil, wrapParseErr(path, lineNo, err)
			}
			if err := g.AddVertex(vid, []byte(fields[2])); err != nil {
				return nil, wrapParseErr(path, lineNo, err)
			}
		case "E":
			if len(fields) != 3 {
				return nil, wrapParseErr(path, lineNo, fmt.Errorf("%w: E line needs src and dst, got %d fields", errs.ErrInputParse, len(fields)))
			}

			src, err := parseVID(fields[1])
			if err != nil {
				return nil, wrapParseErr(path, lineNo, err)
			}
			dst, err := parseVID(fields[2])
			if err != nil {
				return nil, wrapParseErr(path, lineNo, err)
			}
			if err := g.AddEdge(src, dst); err != nil {
				return nil, wrapParseErr(path, lineNo, err)
			}
		default:
			return nil, wrapParseErr(path, lineNo, fmt.Errorf("%w: unrecognized line type %q", errs.ErrInputParse, fields[0]))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errs.ErrIO, path, err)
	}

	return g, nil
}

func parseVID(s string) (graph.VID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: vid %q: %v", errs.ErrInputParse, s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: vid %q must be non-negative", errs.ErrInputParse, s)
	}

	return graph.VID(n), nil
}
