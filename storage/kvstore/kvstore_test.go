package kvstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/graphbatch/errors"
	"github.com/c360/graphbatch/natsclient"
)

func TestNew_RequiresClient(t *testing.T) {
	_, err := New(context.Background(), nil, Config{})
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestNew_NotConnected(t *testing.T) {
	client, err := natsclient.NewClient("nats://127.0.0.1:1")
	require.NoError(t, err)

	_, err = New(context.Background(), client, Config{Bucket: "X"})
	require.Error(t, err)
	assert.ErrorIs(t, err, natsclient.ErrNotConnected)
	assert.True(t, errors.IsTransient(err))
}
