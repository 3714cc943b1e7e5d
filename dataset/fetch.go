package dataset

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/c360/graphbatch/errors"
	"github.com/c360/graphbatch/pkg/retry"
)

// Fetcher acquires the raw source. Fetch writes the complete file to dst
// or returns an error wrapping errors.ErrFetch; it never leaves a partial
// file at dst.
type Fetcher interface {
	Fetch(ctx context.Context, dst string) error
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, dst string) error

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, dst string) error { return f(ctx, dst) }

// HTTPFetcher downloads the raw source from a URL.
type HTTPFetcher struct {
	URL    string
	Client *http.Client
	Retry  errors.RetryConfig
	Logger *slog.Logger
}

// Fetch downloads URL into a temporary file next to dst and renames it into
// place once the body has been fully written. Server errors and network
// failures are retried per Retry.
func (f *HTTPFetcher) Fetch(ctx context.Context, dst string) error {
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "fetcher", "url", f.URL)

	err := retry.Do(ctx, f.Retry.ToRetryConfig(), func() error {
		err := f.download(ctx, dst)
		if err != nil {
			logger.Warn("Download attempt failed", "error", err)
		}
		return err
	})
	if err != nil {
		return errors.WrapFatal(fmt.Errorf("%w: %v", errors.ErrFetch, err), "fetcher", "Fetch", "download "+f.URL)
	}
	logger.Info("Raw source downloaded", "dst", dst)
	return nil
}

func (f *HTTPFetcher) download(ctx context.Context, dst string) error {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return errors.WrapInvalid(err, "fetcher", "download", "build request")
	}
	resp, err := client.Do(req)
	if err != nil {
		return errors.WrapTransient(fmt.Errorf("%w: %v", errors.ErrFetch, err), "fetcher", "download", "request")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return errors.WrapTransient(fmt.Errorf("%w: status %s", errors.ErrFetch, resp.Status), "fetcher", "download", "request")
	case resp.StatusCode != http.StatusOK:
		return errors.WrapInvalid(fmt.Errorf("%w: status %s", errors.ErrFetch, resp.Status), "fetcher", "download", "request")
	}

	return writeAtomic(dst, resp.Body)
}

// writeAtomic copies r to a temp file in dst's directory and renames it
// over dst.
func writeAtomic(dst string, r io.Reader) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WrapFatal(err, "fetcher", "writeAtomic", "create directory")
	}
	tmp := filepath.Join(dir, ".graphbatch.fetch."+uuid.NewString())
	fd, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errors.WrapFatal(err, "fetcher", "writeAtomic", "create temp")
	}
	defer os.Remove(tmp)

	if _, err := io.Copy(fd, r); err != nil {
		fd.Close()
		return errors.WrapTransient(fmt.Errorf("%w: %v", errors.ErrFetch, err), "fetcher", "writeAtomic", "copy body")
	}
	_ = fd.Sync()
	if err := fd.Close(); err != nil {
		return errors.WrapTransient(err, "fetcher", "writeAtomic", "close temp")
	}
	if err := os.Rename(tmp, dst); err != nil {
		return errors.WrapFatal(err, "fetcher", "writeAtomic", "rename")
	}
	return nil
}

// fetches collapses concurrent EnsureSource calls for the same path.
var fetches singleflight.Group

// EnsureSource makes sure the raw file exists, invoking fetcher when it
// does not. It is idempotent: a present file is never fetched again. With
// no fetcher and no file it returns errors.ErrRawSourceUnavailable.
func EnsureSource(ctx context.Context, cfg Config, fetcher Fetcher) error {
	path := cfg.RawPath()
	if cfg.RawFile == "" {
		return errors.WrapInvalid(fmt.Errorf("%w: raw_file", errors.ErrMissingConfig), "dataset", "EnsureSource", "check config")
	}

	info, err := os.Stat(path)
	switch {
	case err == nil && info.Mode().IsRegular():
		return nil
	case err == nil:
		return errors.WrapFatal(fmt.Errorf("%w: %s is not a regular file", errors.ErrRawSourceUnavailable, path),
			"dataset", "EnsureSource", "stat raw source")
	case !stderrors.Is(err, fs.ErrNotExist):
		return errors.WrapFatal(err, "dataset", "EnsureSource", "stat raw source")
	}

	if fetcher == nil {
		return errors.WrapFatal(fmt.Errorf("%w: %s", errors.ErrRawSourceUnavailable, path), "dataset", "EnsureSource", "locate raw source")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WrapFatal(err, "dataset", "EnsureSource", "create raw directory")
	}
	_, err, _ = fetches.Do(path, func() (any, error) {
		if _, err := os.Stat(path); err == nil {
			return nil, nil
		}
		return nil, fetcher.Fetch(ctx, path)
	})
	if err != nil {
		if !stderrors.Is(err, errors.ErrFetch) {
			err = fmt.Errorf("%w: %v", errors.ErrFetch, err)
		}
		return errors.Wrap(err, "dataset", "EnsureSource", "fetch raw source")
	}
	if _, err := os.Stat(path); err != nil {
		return errors.WrapFatal(fmt.Errorf("%w: fetcher reported success but %s is missing", errors.ErrFetch, path),
			"dataset", "EnsureSource", "verify raw source")
	}
	return nil
}
