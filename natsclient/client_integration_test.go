//go:build integration

package natsclient

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_CreateKeyValueBucketConcurrent(t *testing.T) {
	tc := NewTestClient(t, WithJetStream())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tc.Client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{Bucket: "RACE"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	bucket, err := tc.Client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{Bucket: "RACE"})
	require.NoError(t, err)
	assert.Equal(t, "RACE", bucket.Bucket())
	assert.True(t, tc.Client.IsHealthy())
}

func TestIntegration_ServerAuth(t *testing.T) {
	tc := NewTestClient(t, WithJetStream(), WithServerAuth("loader", "secret"))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	anonymous, err := NewClient(tc.URL, WithMaxReconnects(0), WithTimeout(2*time.Second))
	require.NoError(t, err)
	assert.Error(t, anonymous.Connect(ctx))

	authed, err := NewClient(tc.URL, WithCredentials("loader", "secret"), WithMaxReconnects(0))
	require.NoError(t, err)
	require.NoError(t, authed.Connect(ctx))
	defer authed.Close(ctx)
	assert.Equal(t, StatusConnected, authed.Status())
}
