// Package kvstore is a storage.Store backed by a NATS JetStream key/value
// bucket.
package kvstore

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/graphbatch/errors"
	"github.com/c360/graphbatch/natsclient"
	"github.com/c360/graphbatch/storage"
)

// DefaultBucket is used when Config.Bucket is empty.
const DefaultBucket = "GRAPHBATCH_SAMPLES"

// Config selects the bucket.
type Config struct {
	Bucket      string `json:"bucket" yaml:"bucket"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// MaxValueSize caps a single record in bytes; 0 means the server default.
	MaxValueSize int32 `json:"max_value_size,omitempty" yaml:"max_value_size,omitempty"`
	// Replicas is the bucket replication factor; 0 means 1.
	Replicas int `json:"replicas,omitempty" yaml:"replicas,omitempty"`
}

// Store writes records into a KV bucket. Put uses Create, so the first
// writer of a key wins and later writers of the same key succeed without
// changing it.
type Store struct {
	bucket jetstream.KeyValue
	client *natsclient.Client
	owned  bool
	logger *slog.Logger
}

var _ storage.Store = (*Store)(nil)

// New opens the bucket on a connected client, creating it if needed.
func New(ctx context.Context, client *natsclient.Client, cfg Config) (*Store, error) {
	if client == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "kvstore", "New", "client check")
	}
	name := cfg.Bucket
	if name == "" {
		name = DefaultBucket
	}
	bucket, err := client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{
		Bucket:       name,
		Description:  cfg.Description,
		MaxValueSize: cfg.MaxValueSize,
		Replicas:     cfg.Replicas,
		History:      1,
	})
	if err != nil {
		return nil, errors.WrapTransient(err, "kvstore", "New", "open bucket "+name)
	}
	return &Store{
		bucket: bucket,
		client: client,
		logger: slog.Default().With("component", "kvstore", "bucket", name),
	}, nil
}

// Connect dials url, opens the bucket, and ties the connection's lifetime
// to the store: Close also closes the client.
func Connect(ctx context.Context, url string, cfg Config, opts ...natsclient.ClientOption) (*Store, error) {
	client, err := natsclient.NewClient(url, opts...)
	if err != nil {
		return nil, err
	}
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	s, err := New(ctx, client, cfg)
	if err != nil {
		_ = client.Close(ctx)
		return nil, err
	}
	s.owned = true
	return s, nil
}

// Bucket returns the bucket name.
func (s *Store) Bucket() string { return s.bucket.Bucket() }

// Put implements storage.Store.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.bucket.Create(ctx, key, data)
	if err == nil {
		return nil
	}
	if natsclient.IsKVConflictError(err) {
		s.logger.Debug("Record already published", "key", key)
		return nil
	}
	return errors.WrapTransient(err, "kvstore", "Put", "create "+key)
}

// Get implements storage.Store.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := s.bucket.Get(ctx, key)
	if err != nil {
		if natsclient.IsKVNotFoundError(err) {
			return nil, storage.NotFound("kvstore", key)
		}
		return nil, errors.WrapTransient(err, "kvstore", "Get", "get "+key)
	}
	return entry.Value(), nil
}

// List implements storage.Store.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	lister, err := s.bucket.ListKeys(ctx)
	if err != nil {
		if natsclient.IsNoKeysError(err) {
			return nil, nil
		}
		return nil, errors.WrapTransient(err, "kvstore", "List", "list keys")
	}
	defer lister.Stop()

	var keys []string
	for k := range lister.Keys() {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// Delete implements storage.Store. It purges the key so a later Put can
// create it again.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Purge(ctx, key); err != nil && !natsclient.IsKVNotFoundError(err) {
		return errors.WrapTransient(err, "kvstore", "Delete", "purge "+key)
	}
	return nil
}

// Close implements storage.Store. It closes the client only if Connect
// created it.
func (s *Store) Close() error {
	if s.owned && s.client != nil {
		return s.client.Close(context.Background())
	}
	return nil
}
