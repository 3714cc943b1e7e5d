package leveldbstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/graphbatch/errors"
	"github.com/c360/graphbatch/storage"
)

func TestStore_OnDisk(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "processed.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, storage.IndexKey(5), []byte("five")))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, storage.IndexKey(5))
	require.NoError(t, err)
	assert.Equal(t, "five", string(got))
	assert.Equal(t, path, s.Location())
	require.NoError(t, s.Compact())
}

func TestStore_Memory(t *testing.T) {
	ctx := context.Background()
	s := OpenMemory()
	defer s.Close()

	for _, i := range []int{3, 1, 2} {
		require.NoError(t, s.Put(ctx, storage.IndexKey(i), []byte{byte(i)}))
	}
	require.NoError(t, s.Put(ctx, "splits", []byte("{}")))

	keys, err := s.List(ctx, storage.IndexKeyPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{storage.IndexKey(1), storage.IndexKey(2), storage.IndexKey(3)}, keys)

	require.NoError(t, s.Delete(ctx, storage.IndexKey(2)))
	_, err = s.Get(ctx, storage.IndexKey(2))
	assert.True(t, storage.IsNotFound(err))
}

func TestStore_Closed(t *testing.T) {
	s := OpenMemory()
	require.NoError(t, s.Close())

	err := s.Put(context.Background(), "k", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrStorageUnavailable)
	assert.True(t, errors.IsTransient(err))
}
