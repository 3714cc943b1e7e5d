// Package leveldbstore is a storage.Store backed by a goleveldb database.
package leveldbstore

import (
	"context"
	stderrors "errors"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	lstorage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/c360/graphbatch/errors"
	"github.com/c360/graphbatch/storage"
)

// Store wraps a leveldb.DB. Single-key writes in leveldb are atomic, so Put
// needs no extra publishing step.
type Store struct {
	ldb      *leveldb.DB
	location string
}

var _ storage.Store = (*Store)(nil)

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	ldb, err := leveldb.OpenFile(path, &opt.Options{
		OpenFilesCacheCapacity: 64,
	})
	if err != nil {
		return nil, errors.WrapFatal(wrapLeveldbErr(err), "leveldbstore", "Open", "open database")
	}
	return &Store{ldb: ldb, location: path}, nil
}

// OpenMemory returns a store on in-memory leveldb storage.
func OpenMemory() *Store {
	ldb, err := leveldb.Open(lstorage.NewMemStorage(), nil)
	if err != nil {
		// Memory storage cannot fail to open.
		panic(err)
	}
	return &Store{ldb: ldb, location: ":memory:"}
}

// Location returns the path the store was opened at.
func (s *Store) Location() string { return s.location }

// Put implements storage.Store.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return wrap(s.ldb.Put([]byte(key), data, nil), "Put", "write")
}

// Get implements storage.Store.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	val, err := s.ldb.Get([]byte(key), nil)
	if stderrors.Is(err, leveldb.ErrNotFound) {
		return nil, storage.NotFound("leveldbstore", key)
	}
	if err != nil {
		return nil, wrap(err, "Get", "read")
	}
	return val, nil
}

// List implements storage.Store.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	it := s.ldb.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer it.Release()

	var keys []string
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		keys = append(keys, string(it.Key()))
	}
	if err := it.Error(); err != nil {
		return nil, wrap(err, "List", "iterate")
	}
	return keys, nil
}

// Delete implements storage.Store.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return wrap(s.ldb.Delete([]byte(key), nil), "Delete", "delete")
}

// Compact compacts the whole key range.
func (s *Store) Compact() error {
	return wrap(s.ldb.CompactRange(util.Range{}), "Compact", "compact")
}

// Close implements storage.Store.
func (s *Store) Close() error {
	return wrap(s.ldb.Close(), "Close", "close")
}

func wrapLeveldbErr(err error) error {
	if stderrors.Is(err, leveldb.ErrClosed) {
		return errors.ErrStorageUnavailable
	}
	return err
}

func wrap(err error, method, action string) error {
	if err == nil {
		return nil
	}
	err = wrapLeveldbErr(err)
	if errors.IsTransient(err) {
		return errors.WrapTransient(err, "leveldbstore", method, action)
	}
	return errors.WrapFatal(err, "leveldbstore", method, action)
}
