package container

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pangenome/gfmi/graph"
)

func TestWriteReadRoundTrip(t *testing.T) {
	b := Bundle{
		EncodedGraph: []byte("encoded-graph-bytes"),
		Index:        []byte("fm-index-bytes"),
		Permutation:  []graph.VID{3, 1, 2, 0},
	}

	data := Write(b)

	got, err := Read(data)
	require.NoError(t, err)
	assert.Equal(t, b.EncodedGraph, got.EncodedGraph)
	assert.Equal(t, b.Index, got.Index)
	assert.Equal(t, b.Permutation, got.Permutation)
}

func TestWriteReadRoundTripEmptyPermutation(t *testing.T) {
	b := Bundle{EncodedGraph: []byte{1, 2, 3}, Index: []byte{4, 5}}

	got, err := Read(Write(b))
	require.NoError(t, err)
	assert.Equal(t, b.EncodedGraph, got.EncodedGraph)
	assert.Equal(t, b.Index, got.Index)
	assert.Empty(t, got.Permutation)
}

func TestReadRejectsBadMagic(t *testing.T) {
	data := Write(Bundle{EncodedGraph: []byte{1}, Index: []byte{2}})
	data[0] ^= 0xff

	_, err := Read(data)
	assert.Error(t, err)
}

func TestReadRejectsTruncatedHeader(t *testing.T) {
	_, err := Read([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestReadRejectsTruncatedChunk(t *testing.T) {
	data := Write(Bundle{EncodedGraph: []byte("hello"), Index: []byte("world")})

	_, err := Read(data[:len(data)-20])
	assert.Error(t, err)
}
