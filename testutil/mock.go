package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/c360/graphbatch/dataset"
	"github.com/c360/graphbatch/graph"
	"github.com/c360/graphbatch/storage"
	"github.com/c360/graphbatch/storage/memstore"
)

// MockStore is an in-memory storage.Store with call counters and error
// injection.
type MockStore struct {
	*memstore.Store

	mu       sync.Mutex
	PutErr   error
	GetErr   error
	PutCalls int
	GetCalls int
}

var _ storage.Store = (*MockStore)(nil)

// NewMockStore returns an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{Store: memstore.New()}
}

// Put records the call and fails with PutErr when set.
func (m *MockStore) Put(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	m.PutCalls++
	err := m.PutErr
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return m.Store.Put(ctx, key, data)
}

// Get records the call and fails with GetErr when set.
func (m *MockStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	m.GetCalls++
	err := m.GetErr
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m.Store.Get(ctx, key)
}

// SetPutErr changes the injected Put error.
func (m *MockStore) SetPutErr(err error) {
	m.mu.Lock()
	m.PutErr = err
	m.mu.Unlock()
}

// Calls returns the Put and Get counts.
func (m *MockStore) Calls() (puts, gets int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.PutCalls, m.GetCalls
}

// CountingBuilder wraps a GraphBuilder and counts Build calls per index.
type CountingBuilder struct {
	Inner dataset.GraphBuilder

	total atomic.Int64
	mu    sync.Mutex
	calls map[int]int
}

// NewCountingBuilder wraps inner.
func NewCountingBuilder(inner dataset.GraphBuilder) *CountingBuilder {
	return &CountingBuilder{Inner: inner, calls: make(map[int]int)}
}

// Build implements dataset.GraphBuilder.
func (b *CountingBuilder) Build(ctx context.Context, rec dataset.Record) (*graph.Graph, error) {
	b.total.Add(1)
	b.mu.Lock()
	b.calls[rec.Index]++
	b.mu.Unlock()
	return b.Inner.Build(ctx, rec)
}

// Total returns the number of Build calls.
func (b *CountingBuilder) Total() int { return int(b.total.Load()) }

// CallsFor returns the number of Build calls for index i.
func (b *CountingBuilder) CallsFor(i int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[i]
}

// SliceSource serves fixed graphs as a dataset.Source.
type SliceSource struct {
	Graphs []*graph.Graph
	// Err, when set, is returned for the indices it reports true.
	Err func(i int) error
}

// Len implements dataset.Source.
func (s *SliceSource) Len() int { return len(s.Graphs) }

// Get implements dataset.Source.
func (s *SliceSource) Get(ctx context.Context, i int) (*graph.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		if err := s.Err(i); err != nil {
			return nil, err
		}
	}
	return s.Graphs[i], nil
}
