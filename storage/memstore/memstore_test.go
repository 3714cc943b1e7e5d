package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/graphbatch/storage"
)

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()

	buf := []byte("abc")
	require.NoError(t, s.Put(ctx, storage.IndexKey(1), buf))
	buf[0] = 'x'

	got, err := s.Get(ctx, storage.IndexKey(1))
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got, "store must not alias caller buffers")

	_, err = s.Get(ctx, storage.IndexKey(2))
	assert.True(t, storage.IsNotFound(err))
}

func TestStore_ListSortedByPrefix(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, i := range []int{10, 2, 7} {
		require.NoError(t, s.Put(ctx, storage.IndexKey(i), []byte{byte(i)}))
	}
	require.NoError(t, s.Put(ctx, "meta", nil))

	keys, err := s.List(ctx, storage.IndexKeyPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{storage.IndexKey(2), storage.IndexKey(7), storage.IndexKey(10)}, keys)

	require.NoError(t, s.Delete(ctx, storage.IndexKey(7)))
	require.NoError(t, s.Delete(ctx, storage.IndexKey(7)))
	assert.Equal(t, 3, s.Len())
}

func TestStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, New().Put(ctx, "k", nil), context.Canceled)
}
