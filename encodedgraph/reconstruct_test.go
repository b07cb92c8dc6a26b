package encodedgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pangenome/gfmi/graph"
)

func TestReconstructRecoversLabelsAndAdjacency(t *testing.T) {
	orig, eg := buildSample(t)

	rebuilt, err := eg.Reconstruct()
	require.NoError(t, err)

	require.True(t, rebuilt.Frozen())
	assert.Equal(t, orig.NumVertices(), rebuilt.NumVertices())

	for _, id := range orig.VertexIDs() {
		ov := orig.Vertex(id)
		rv := rebuilt.Vertex(id)
		require.NotNil(t, rv)
		assert.Equal(t, ov.Label, rv.Label)
		assert.ElementsMatch(t, orig.Out(id), rebuilt.Out(id))
	}
}

func TestReconstructRecoversBidirectionalAdjacency(t *testing.T) {
	_, eg := buildSample(t)

	rebuilt, err := eg.Reconstruct()
	require.NoError(t, err)

	// buildSample adds edges 0->1 and 0->2; In() must reflect both, which
	// encodedgraph.Graph itself never stores (it keeps only Out adjacency).
	assert.ElementsMatch(t, []graph.VID{0}, rebuilt.In(1))
	assert.ElementsMatch(t, []graph.VID{0}, rebuilt.In(2))
	assert.Empty(t, rebuilt.In(0))
}

func TestReconstructAfterSerializeRoundTrip(t *testing.T) {
	orig, eg := buildSample(t)

	buf := eg.ToBuffer()
	restored, err := FromBuffer(buf)
	require.NoError(t, err)

	rebuilt, err := restored.Reconstruct()
	require.NoError(t, err)

	for _, id := range orig.VertexIDs() {
		assert.Equal(t, orig.Vertex(id).Label, rebuilt.Vertex(id).Label)
		assert.ElementsMatch(t, orig.Out(id), rebuilt.Out(id))
	}
}
