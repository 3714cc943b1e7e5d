// Package retry provides exponential backoff retry logic for transient failures.
//
// graphbatch retries two things: acquiring the raw source (dataset.EnsureSource)
// and building a sample whose GraphBuilder reported a transient error. Both are
// configured through errors.RetryConfig, which converts to Config with a
// Retryable predicate so content errors (malformed records, filter rejections)
// fail on the first attempt.
//
//	err := retry.Do(ctx, retry.DefaultConfig(), func() error {
//	    return fetcher.Fetch(ctx, dst)
//	})
//
// Sleeps honor context cancellation. A single-attempt configuration returns
// the underlying error unchanged; otherwise the last error is wrapped with the
// attempt count and remains reachable through errors.Is.
package retry
