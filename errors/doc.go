// Package errors provides standardized error handling for graphbatch.
//
// # Overview
//
// Errors fall into three classes: Transient (temporary, retryable), Invalid
// (bad input or caller configuration, never retried) and Fatal (unrecoverable,
// stop processing). Components wrap causes with Wrap, WrapTransient,
// WrapInvalid or WrapFatal so messages read "component.method: action failed: cause"
// and errors.Is still finds the underlying sentinel.
//
// # Domain taxonomy
//
//   - ErrMalformedRecord, ErrFiltered: per-sample content errors. Recoverable at the
//     dataset boundary by skipping (see IsSkippable) or propagated, caller's choice.
//   - ErrIndexOutOfRange, ErrUnknownSplit: caller errors, always propagated.
//   - ErrFetch: acquiring the raw source failed; retried only under a RetryConfig.
//   - ErrRawSourceUnavailable: no local copy and no fetcher.
//   - ErrEmptyBatch, ErrShapeMismatch, ErrKindConflict, ErrNoRule: batch contract
//     violations. They surface immediately and are never recovered.
//   - ErrCacheWrite: durable persistence failed. Reported through logs and metrics;
//     the in-memory sample is still returned.
//
// # Retry integration
//
// RetryConfig.ToRetryConfig converts to pkg/retry.Config with a Retryable predicate
// built from ShouldRetry, so only transient errors are retried:
//
//	err := retry.Do(ctx, cfg.Retry.ToRetryConfig(), func() error {
//	    return fetcher.Fetch(ctx, dst)
//	})
package errors
