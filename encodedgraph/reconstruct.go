package encodedgraph

import (
	"github.com/pangenome/gfmi/graph"
)

// Reconstruct rebuilds a plain graph.Graph from g: vertex labels via Decode,
// edges via Out. This recovers exactly the information encodedgraph.Build
// consumed, letting query.Engine (which needs graph.Graph.In for true
// predecessor adjacency) be rebuilt from a deserialized encodedgraph.Graph
// alone, without the CLI needing to keep the original rGFA/fmdg source
// around after indexing.
func (g *Graph) Reconstruct() (*graph.Graph, error) {
	out := graph.New()

	for _, v := range g.VertexIDs() {
		n := g.VertexLen(v)
		label := make([]byte, n)
		for i := 0; i < n; i++ {
			label[i] = g.DecodedByteAt(v, i)
		}
		if err := out.AddVertex(v, label); err != nil {
			return nil, err
		}
	}

	for _, v := range g.VertexIDs() {
		for _, nb := range g.Out(v) {
			if err := out.AddEdge(v, nb); err != nil {
				return nil, err
			}
		}
	}

	out.Freeze()

	return out, nil
}
