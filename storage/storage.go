// Package storage defines the durable record store behind the dataset cache.
package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/c360/graphbatch/errors"
)

// Store is a durable key/value store of opaque records.
//
// Implementations must be safe for concurrent use. Put publishes atomically:
// a reader sees either no record or the complete one, never a partial
// write. Writing a key that already exists either replaces the record
// atomically or keeps the first one; callers only write deterministic
// records, so both outcomes are equivalent.
type Store interface {
	// Put stores data under key.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the record for key, or an error wrapping
	// errors.ErrKeyNotFound when there is none.
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns the keys with the given prefix in lexicographic order.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the store's resources.
	Close() error
}

// IndexKeyPrefix prefixes every sample key.
const IndexKeyPrefix = "sample."

// IndexKey returns the key of sample i. Keys sort in index order.
func IndexKey(i int) string {
	return fmt.Sprintf("%s%010d", IndexKeyPrefix, i)
}

// ParseIndexKey is the inverse of IndexKey.
func ParseIndexKey(key string) (int, bool) {
	digits, ok := strings.CutPrefix(key, IndexKeyPrefix)
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(digits)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// NotFound returns the error stores report for a missing key.
func NotFound(component, key string) error {
	return errors.WrapInvalid(fmt.Errorf("%w: %s", errors.ErrKeyNotFound, key), component, "Get", "lookup")
}

// IsNotFound reports whether err means the key does not exist.
func IsNotFound(err error) bool {
	return stderrors.Is(err, errors.ErrKeyNotFound)
}
