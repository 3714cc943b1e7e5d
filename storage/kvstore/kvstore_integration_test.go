//go:build integration

package kvstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/graphbatch/natsclient"
	"github.com/c360/graphbatch/storage"
)

func TestIntegration_Store(t *testing.T) {
	// the bucket already exists, so New must reuse it
	tc := natsclient.NewTestClient(t, natsclient.WithKVBuckets("SAMPLES_TEST"))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := New(ctx, tc.Client, Config{Bucket: "SAMPLES_TEST"})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get(ctx, storage.IndexKey(0))
	assert.True(t, storage.IsNotFound(err))

	keys, err := s.List(ctx, storage.IndexKeyPrefix)
	require.NoError(t, err)
	assert.Empty(t, keys)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Put(ctx, storage.IndexKey(0), []byte("record")))
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, storage.IndexKey(0))
	require.NoError(t, err)
	assert.Equal(t, "record", string(got))

	require.NoError(t, s.Put(ctx, storage.IndexKey(2), []byte("two")))
	keys, err = s.List(ctx, storage.IndexKeyPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{storage.IndexKey(0), storage.IndexKey(2)}, keys)

	require.NoError(t, s.Delete(ctx, storage.IndexKey(0)))
	_, err = s.Get(ctx, storage.IndexKey(0))
	assert.True(t, storage.IsNotFound(err))
	require.NoError(t, s.Put(ctx, storage.IndexKey(0), []byte("again")))
}

func TestIntegration_Connect(t *testing.T) {
	tc := natsclient.NewTestClient(t, natsclient.WithJetStream(), natsclient.WithServerAuth("loader", "secret"))
	ctx := context.Background()

	_, err := Connect(ctx, tc.URL, Config{}, natsclient.WithMaxReconnects(0))
	require.Error(t, err, "the server requires credentials")

	s, err := Connect(ctx, tc.URL, Config{},
		natsclient.WithName("kvstore-test"),
		natsclient.WithCredentials("loader", "secret"),
		natsclient.WithTimeout(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, DefaultBucket, s.Bucket())
	require.NoError(t, s.Close())
}
