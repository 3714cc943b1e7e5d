// Package filestore is a storage.Store backed by one file per key.
package filestore

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/c360/graphbatch/errors"
	"github.com/c360/graphbatch/storage"
)

// TempPrefix marks in-flight writes. Files with this prefix are never
// reported by List.
const TempPrefix = ".graphbatch.tmp."

// TempGrace is how old a temporary file must be before CleanTemp treats it
// as abandoned. Younger files may belong to a writer in another process.
const TempGrace = 10 * time.Minute

// Store writes each record to <dir>/<key>.
type Store struct {
	dir string
}

var _ storage.Store = (*Store)(nil)

// New opens a store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "filestore", "New", "directory check")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.WrapFatal(err, "filestore", "New", "create directory")
	}
	return &Store{dir: dir}, nil
}

// Dir returns the root directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(method, key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, TempPrefix) || key == "." || key == ".." {
		return "", errors.Invalidf(errors.ErrInvalidData, "filestore", method, "illegal key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

// Put writes data to a temporary file in the same directory and renames it
// over the final name, so readers never observe a partial record.
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	final, err := s.path("Put", key)
	if err != nil {
		return err
	}

	tmp := filepath.Join(s.dir, TempPrefix+uuid.NewString())
	fd, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return classify(err, "Put", "create temp")
	}
	// Removing after a successful rename is a no-op.
	defer os.Remove(tmp)

	if _, err := fd.Write(data); err != nil {
		fd.Close()
		return classify(err, "Put", "write")
	}
	_ = fd.Sync()
	if err := fd.Close(); err != nil {
		return classify(err, "Put", "close")
	}
	if err := os.Rename(tmp, final); err != nil {
		return classify(err, "Put", "rename")
	}

	// fsync the directory too
	if dir, err := os.Open(s.dir); err == nil {
		_ = dir.Sync()
		dir.Close()
	}
	return nil
}

// Get implements storage.Store.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path("Get", key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, storage.NotFound("filestore", key)
	}
	if err != nil {
		return nil, classify(err, "Get", "read")
	}
	return data, nil
}

// List implements storage.Store.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, classify(err, "List", "read directory")
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, TempPrefix) || !strings.HasPrefix(name, prefix) {
			continue
		}
		keys = append(keys, name)
	}
	slices.Sort(keys)
	return keys, nil
}

// Delete implements storage.Store.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path("Delete", key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return classify(err, "Delete", "remove")
	}
	return nil
}

// CleanTemp removes temporary files left behind by interrupted writes that
// were last modified more than olderThan ago.
func (s *Store) CleanTemp(olderThan time.Duration) (int, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, TempPrefix+"*"))
	if err != nil {
		return 0, errors.WrapFatal(err, "filestore", "CleanTemp", "glob")
	}
	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(m); err == nil {
			removed++
		}
	}
	return removed, nil
}

// Close implements storage.Store.
func (s *Store) Close() error { return nil }

func classify(err error, method, action string) error {
	switch {
	case stderrors.Is(err, fs.ErrPermission):
		return errors.WrapFatal(err, "filestore", method, action)
	case isNoSpace(err):
		return errors.WrapFatal(fmt.Errorf("%w: %v", errors.ErrStorageFull, err), "filestore", method, action)
	default:
		return errors.WrapTransient(fmt.Errorf("%w: %v", errors.ErrStorageUnavailable, err), "filestore", method, action)
	}
}

func isNoSpace(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "no space left")
}
