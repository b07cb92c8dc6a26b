package ioformats

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pangenome/gfmi/graph"
)

func TestParseRGFABuildsVerticesAndEdges(t *testing.T) {
	input := "" +
		"S\tseg1\tACGT\tSN:Z:chr1\tSO:i:0\tSR:i:0\n" +
		"S\tseg2\tGGTT\n" +
		"L\tseg1\t+\tseg2\t+\t4M\n"

	g, tags, err := ParseRGFA(strings.NewReader(input), "test.gfa")
	require.NoError(t, err)

	require.Equal(t, 2, g.NumVertices())
	require.Equal(t, 1, g.NumEdges())

	v0 := g.Vertex(0)
	require.NotNil(t, v0)
	assert.Equal(t, "ACGT", string(v0.Label))

	v1 := g.Vertex(1)
	require.NotNil(t, v1)
	assert.Equal(t, "GGTT", string(v1.Label))

	assert.Equal(t, []graph.VID{1}, g.Out(0))

	tag0 := tags[0]
	assert.Equal(t, "chr1", tag0.Name)
	assert.True(t, tag0.HasOffset)
	assert.Equal(t, int64(0), tag0.Offset)
	assert.True(t, tag0.HasRank)
}

func TestParseRGFAExtractsNumericSuffixMinusOne(t *testing.T) {
	input := "S\tchr12\tA\n"
	g, _, err := ParseRGFA(strings.NewReader(input), "test.gfa")
	require.NoError(t, err)
	assert.NotNil(t, g.Vertex(11))
}

func TestParseRGFARejectsSegmentIDWithoutNumericSuffix(t *testing.T) {
	input := "S\tchr\tA\n"
	_, _, err := ParseRGFA(strings.NewReader(input), "test.gfa")
	assert.Error(t, err)
}

func TestParseRGFARejectsLinkToUnknownSegment(t *testing.T) {
	input := "S\tseg1\tA\nL\tseg1\t+\tseg9\t+\t1M\n"
	_, _, err := ParseRGFA(strings.NewReader(input), "test.gfa")
	assert.Error(t, err)
}

func TestParseRGFARejectsUnrecognizedLineType(t *testing.T) {
	input := "X\tfoo\tbar\n"
	_, _, err := ParseRGFA(strings.NewReader(input), "test.gfa")
	assert.Error(t, err)
}

func TestParseRGFASkipsBlankLines(t *testing.T) {
	input := "S\tseg1\tA\n\nS\tseg2\tC\n\n"
	g, _, err := ParseRGFA(strings.NewReader(input), "test.gfa")
	require.NoError(t, err)
	assert.Equal(t, 2, g.NumVertices())
}
