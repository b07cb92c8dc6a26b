package fmi

import (
	"fmt"
	"math/bits"

	"github.com/pangenome/gfmi/encodedgraph"
	"github.com/pangenome/gfmi/errs"
	"github.com/pangenome/gfmi/graph"
)

// BuildText linearizes an encoded graph into the dfmi text (spec.md §3:
// "derived from the encoded graph and a permutation"), the unnamed
// data-flow step between the annealing optimizer and Build. For every
// vertex in permutation order it emits '(' + the vertex's decoded label
// + ')' followed by the vertex's id written as a fixed-width run of ','
// (bit 0) / '.' (bit 1) markers — wide enough to hold the largest vid in
// the graph, so every vertex's marker run has the same length and the
// permutation is fully recoverable by re-reading those markers in BWT
// row order. BuildText does not append an explicit terminator byte:
// Build's suffix-array step already treats the empty suffix as the
// implicit, lexicographically-smallest row and synthesizes '\0' for it.
//
// The returned vertexTextPos gives, for each permutation index (position
// in perm), the text offset of that vertex's '(' byte — the anchor the
// query engine uses to map an SA row that lands on a vertex-start marker
// back to the vertex it starts.
func BuildText(g *encodedgraph.Graph, perm []graph.VID) (text []byte, vertexTextPos []int, err error) {
	if len(perm) != g.NumVertices() {
		return nil, nil, fmt.Errorf("%w: permutation has %d entries, graph has %d vertices", errs.ErrMismatch, len(perm), g.NumVertices())
	}

	maxVID := int64(0)
	for _, v := range perm {
		if int64(v) > maxVID {
			maxVID = int64(v)
		}
	}
	markerWidth := bits.Len64(uint64(maxVID))
	if markerWidth == 0 {
		markerWidth = 1
	}

	text = make([]byte, 0, int(g.TotalEncodedCharacters())+len(perm)*(2+markerWidth)+1)
	vertexTextPos = make([]int, len(perm))

	for i, v := range perm {
		vertexTextPos[i] = len(text)

		n := g.VertexLen(v)
		text = append(text, byteOpen)
		for j := 0; j < n; j++ {
			text = append(text, g.DecodedByteAt(v, j))
		}
		text = append(text, byteClose)

		vid := uint64(v)
		for bit := markerWidth - 1; bit >= 0; bit-- {
			if (vid>>uint(bit))&1 == 1 {
				text = append(text, byteDot)
			} else {
				text = append(text, byteComma)
			}
		}
	}

	return text, vertexTextPos, nil
}
