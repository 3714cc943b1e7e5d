package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/graphbatch/errors"
	"github.com/c360/graphbatch/storage"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "processed"))
	require.NoError(t, err)
	return s
}

func TestStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Put(ctx, storage.IndexKey(0), []byte("first")))
	require.NoError(t, s.Put(ctx, storage.IndexKey(0), []byte("second")))

	got, err := s.Get(ctx, storage.IndexKey(0))
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	_, err = s.Get(ctx, storage.IndexKey(1))
	assert.True(t, storage.IsNotFound(err))
}

func TestStore_NoTempFilesLeft(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.Put(ctx, storage.IndexKey(3), []byte("x")))

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, storage.IndexKey(3), entries[0].Name())
}

func TestStore_ListIgnoresTemp(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.Put(ctx, storage.IndexKey(2), nil))
	require.NoError(t, s.Put(ctx, storage.IndexKey(1), nil))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), TempPrefix+"stale"), []byte("partial"), 0o600))

	keys, err := s.List(ctx, storage.IndexKeyPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{storage.IndexKey(1), storage.IndexKey(2)}, keys)

	n, err := s.CleanTemp(0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_CleanTempSparesRecentWrites(t *testing.T) {
	s := newStore(t)
	stale := filepath.Join(s.Dir(), TempPrefix+"stale")
	fresh := filepath.Join(s.Dir(), TempPrefix+"fresh")
	require.NoError(t, os.WriteFile(stale, []byte("partial"), 0o600))
	require.NoError(t, os.WriteFile(fresh, []byte("partial"), 0o600))
	old := time.Now().Add(-2 * TempGrace)
	require.NoError(t, os.Chtimes(stale, old, old))

	n, err := s.CleanTemp(TempGrace)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh, "a write still in progress elsewhere must survive")
}

func TestStore_IllegalKeys(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	for _, key := range []string{"", "a/b", "..", TempPrefix + "x"} {
		err := s.Put(ctx, key, nil)
		assert.ErrorIs(t, err, errors.ErrInvalidData, key)
	}
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.Put(ctx, "k", []byte("v")))
	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Delete(ctx, "k"))
	_, err := s.Get(ctx, "k")
	assert.True(t, storage.IsNotFound(err))
}

func TestStore_ConcurrentWritersSameKey(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	payload := []byte("deterministic record")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Put(ctx, storage.IndexKey(7), payload))
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, storage.IndexKey(7))
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	keys, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{storage.IndexKey(7)}, keys, fmt.Sprint(keys))
}

func TestNew_MissingDir(t *testing.T) {
	_, err := New("")
	assert.True(t, errors.IsFatal(err))
}
