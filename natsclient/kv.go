package natsclient

import (
	stderrors "errors"
	"strings"

	"github.com/nats-io/nats.go/jetstream"
)

// IsKVNotFoundError checks if error indicates the key does not exist
func IsKVNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, jetstream.ErrKeyNotFound) || stderrors.Is(err, jetstream.ErrKeyDeleted) {
		return true
	}
	errMsg := err.Error()
	return strings.Contains(errMsg, "key not found") ||
		strings.Contains(errMsg, "10037")
}

// IsKVConflictError checks if error indicates a conflict (key exists or wrong revision)
func IsKVConflictError(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, jetstream.ErrKeyExists) {
		return true
	}
	errMsg := err.Error()
	return strings.Contains(errMsg, "wrong last sequence") ||
		strings.Contains(errMsg, "key exists") ||
		strings.Contains(errMsg, "10071")
}

// IsNoKeysError checks if a key listing failed only because the bucket is empty
func IsNoKeysError(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, jetstream.ErrNoKeysFound) || strings.Contains(err.Error(), "no keys found")
}
