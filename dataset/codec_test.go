package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/graphbatch/errors"
	"github.com/c360/graphbatch/graph"
	"github.com/c360/graphbatch/tensor"
)

func bigGraph(n int) *graph.Graph {
	src := make([]int64, n)
	dst := make([]int64, n)
	for i := range src {
		src[i] = int64(i % 4)
		dst[i] = int64((i + 1) % 4)
	}
	return graph.New().SetNumNodes(4).
		Set(graph.EdgeIndexKey, graph.KindIndex, tensor.MustInt64([]int{2, n}, append(src, dst...)))
}

func TestCodec_RoundTrip(t *testing.T) {
	for _, n := range []int{1, 500} {
		g := bigGraph(n)
		data, err := encodeGraph(g)
		require.NoError(t, err)
		if n == 500 {
			assert.Equal(t, formatLZ4, data[0], "repetitive graphs compress")
		} else {
			assert.Equal(t, formatPlain, data[0])
		}

		got, err := decodeRecord(data)
		require.NoError(t, err)
		assert.True(t, graph.Equal(g, got), "n=%d", n)
	}
}

func TestCodec_Tombstone(t *testing.T) {
	g, err := decodeRecord(encodeTombstone())
	require.NoError(t, err)
	assert.Nil(t, g)
}

func TestCodec_Corrupt(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty":     nil,
		"format":    {0x7f, 1, 2},
		"short lz4": {formatLZ4, 0, 0},
		"bad lz4":   {formatLZ4, 0, 0, 0, 10, 0xff, 0xff},
		"bad plain": {formatPlain, 0xc1},
	} {
		_, err := decodeRecord(data)
		assert.Error(t, err, name)
	}
	_, err := decodeRecord([]byte{0x7f})
	assert.ErrorIs(t, err, errors.ErrDataCorrupted)
}

func TestCodec_ImplausibleLZ4SizeRejected(t *testing.T) {
	// a 2-byte block claiming 4 GiB
	data := []byte{formatLZ4, 0xff, 0xff, 0xff, 0xff, 0x10, 0x00}
	_, err := decodeRecord(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDataCorrupted)
	assert.Contains(t, err.Error(), "cannot expand")

	valid, err := encodeGraph(bigGraph(500))
	require.NoError(t, err)
	require.Equal(t, formatLZ4, valid[0])
	_, err = decodeRecord(valid)
	assert.NoError(t, err, "real blocks stay within the bound")
}
