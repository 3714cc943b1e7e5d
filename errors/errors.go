// Package errors provides standardized error handling for graphbatch components.
// It includes error classification, the domain error taxonomy, and helper functions
// for consistent error wrapping and classification across the system.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/c360/graphbatch/pkg/retry"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorTransient represents temporary errors that may be retried
	ErrorTransient ErrorClass = iota
	// ErrorInvalid represents errors due to invalid input or configuration
	ErrorInvalid
	// ErrorFatal represents unrecoverable errors that should stop processing
	ErrorFatal
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Domain errors. Match them with errors.Is; every wrapped form produced by
// this module keeps the sentinel in its chain.
var (
	// ErrMalformedRecord indicates a raw record could not be turned into a valid graph.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrFiltered indicates the pre-filter rejected a record. The index stays addressable
	// but never materializes.
	ErrFiltered = errors.New("record rejected by pre-filter")
	// ErrIndexOutOfRange indicates a dataset index outside [0, Len()).
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrUnknownSplit indicates a split name absent from the split index.
	ErrUnknownSplit = errors.New("unknown split")
	// ErrFetch indicates the raw source could not be acquired.
	ErrFetch = errors.New("fetch failed")
	// ErrRawSourceUnavailable indicates the raw source is missing locally and no
	// fetcher is configured.
	ErrRawSourceUnavailable = errors.New("raw source missing and no fetcher configured")
	// ErrEmptyBatch indicates the batch builder was given zero graphs.
	ErrEmptyBatch = errors.New("empty batch")
	// ErrCacheWrite indicates durable persistence of a sample failed.
	ErrCacheWrite = errors.New("cache write failed")
	// ErrShapeMismatch indicates arrays that cannot be joined or offset as requested.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrKindConflict indicates one attribute key registered with different kinds.
	ErrKindConflict = errors.New("attribute kind conflict")
	// ErrNoRule indicates a custom-kind attribute without a policy override.
	ErrNoRule = errors.New("no policy rule for attribute")
)

// Standard error variables for common conditions
var (
	// Lifecycle errors
	ErrAlreadyStarted = errors.New("component already started")
	ErrNotStarted     = errors.New("component not started")
	ErrShuttingDown   = errors.New("component is shutting down")

	// Data processing errors
	ErrInvalidData    = errors.New("invalid data format")
	ErrDataCorrupted  = errors.New("data corrupted")
	ErrChecksumFailed = errors.New("checksum validation failed")
	ErrParsingFailed  = errors.New("parsing failed")

	// Storage and persistence errors
	ErrStorageFull        = errors.New("storage full")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrKeyNotFound        = errors.New("key not found")

	// Configuration errors
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrMissingConfig  = errors.New("missing required configuration")
	ErrConfigNotFound = errors.New("configuration not found")

	// Resource errors
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrRateLimited       = errors.New("rate limited")

	// Retry errors
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")
	ErrRetryTimeout       = errors.New("retry timeout exceeded")
)

var (
	transientErrors = []error{
		ErrStorageUnavailable,
		ErrRateLimited,
		ErrCacheWrite,
		ErrFetch,
		context.DeadlineExceeded,
		context.Canceled,
	}

	invalidErrors = []error{
		ErrInvalidData,
		ErrParsingFailed,
		ErrChecksumFailed,
		ErrMalformedRecord,
		ErrFiltered,
		ErrIndexOutOfRange,
		ErrUnknownSplit,
		ErrEmptyBatch,
		ErrShapeMismatch,
		ErrKindConflict,
		ErrNoRule,
	}

	fatalErrors = []error{
		ErrInvalidConfig,
		ErrMissingConfig,
		ErrDataCorrupted,
		ErrStorageFull,
		ErrResourceExhausted,
		ErrRawSourceUnavailable,
	}
)

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	if ce.Err == nil {
		return ce.Class.String() + " error"
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsTransient checks if an error is transient and should be retried
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorTransient
	}

	if isAny(err, transientErrors) {
		return true
	}
	// Known sentinels of another class win over message heuristics.
	if isAny(err, invalidErrors) || isAny(err, fatalErrors) {
		return false
	}

	errStr := strings.ToLower(err.Error())
	transientPatterns := []string{
		"timeout",
		"connection",
		"network",
		"temporary",
		"unavailable",
		"busy",
		"retry",
	}

	for _, pattern := range transientPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// IsFatal checks if an error is fatal and should stop processing
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorFatal
	}

	if isAny(err, fatalErrors) {
		return true
	}
	if isAny(err, invalidErrors) || isAny(err, transientErrors) {
		return false
	}

	errStr := strings.ToLower(err.Error())
	fatalPatterns := []string{
		"fatal",
		"panic",
		"corrupted",
		"invalid config",
		"missing config",
		"out of memory",
		"disk full",
	}

	for _, pattern := range fatalPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// IsInvalid checks if an error is due to invalid input
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorInvalid
	}

	return isAny(err, invalidErrors)
}

// Classify returns the error class for an error
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorTransient
	}

	if IsTransient(err) {
		return ErrorTransient
	}
	if IsFatal(err) {
		return ErrorFatal
	}
	if IsInvalid(err) {
		return ErrorInvalid
	}

	// Unknown errors default to transient to allow retry
	return ErrorTransient
}

// IsSkippable reports whether a per-sample error may be dropped by a caller
// that opted into skip-and-continue semantics.
func IsSkippable(err error) bool {
	return errors.Is(err, ErrFiltered) || errors.Is(err, ErrMalformedRecord)
}

func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapTransient wraps an error as transient with context
func WrapTransient(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorTransient, wrappedErr, component, method, wrappedErr.Error())
}

// WrapFatal wraps an error as fatal with context
func WrapFatal(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorFatal, wrappedErr, component, method, wrappedErr.Error())
}

// WrapInvalid wraps an error as invalid with context
func WrapInvalid(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorInvalid, wrappedErr, component, method, wrappedErr.Error())
}

// Invalidf builds an invalid-class error around a sentinel with a formatted detail,
// e.g. Invalidf(ErrShapeMismatch, "batch", "Build", "key %q: rank %d vs %d", ...).
func Invalidf(sentinel error, component, method, format string, args ...any) error {
	detail := fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), sentinel)
	return WrapInvalid(detail, component, method, "validation")
}

// RetryConfig defines configuration for retry operations
type RetryConfig struct {
	MaxRetries      int           `json:"max_retries" yaml:"max_retries"`
	InitialDelay    time.Duration `json:"initial_delay" yaml:"initial_delay"`
	MaxDelay        time.Duration `json:"max_delay" yaml:"max_delay"`
	BackoffFactor   float64       `json:"backoff_factor" yaml:"backoff_factor"`
	RetryableErrors []error       `json:"-" yaml:"-"`
}

// DefaultRetryConfig returns a sensible default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        5 * time.Second,
		BackoffFactor:   2.0,
		RetryableErrors: nil, // Empty list means retry all transient errors
	}
}

// ShouldRetry determines if an error should be retried based on config
func (rc RetryConfig) ShouldRetry(err error, attempt int) bool {
	if err == nil || attempt >= rc.MaxRetries {
		return false
	}

	if !IsTransient(err) {
		return false
	}

	if len(rc.RetryableErrors) > 0 {
		return isAny(err, rc.RetryableErrors)
	}

	return true
}

// ToRetryConfig converts RetryConfig to the retry package's Config.
//
// MaxRetries counts additional attempts, so the conversion adds 1 to get total
// attempts. Jitter is always enabled. Errors that ShouldRetry rejects are
// reported as non-retryable through the Retryable predicate.
func (rc RetryConfig) ToRetryConfig() retry.Config {
	return retry.Config{
		MaxAttempts:  rc.MaxRetries + 1,
		InitialDelay: rc.InitialDelay,
		MaxDelay:     rc.MaxDelay,
		Multiplier:   rc.BackoffFactor,
		AddJitter:    true,
		Retryable: func(err error) bool {
			return rc.ShouldRetry(err, 0)
		},
	}
}

// BackoffDelay calculates the delay for a retry attempt
func (rc RetryConfig) BackoffDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return rc.InitialDelay
	}

	delay := rc.InitialDelay
	for i := 0; i < attempt; i++ {
		delay = time.Duration(float64(delay) * rc.BackoffFactor)
		if delay > rc.MaxDelay {
			delay = rc.MaxDelay
			break
		}
	}

	return delay
}

// UnmarshalJSON accepts durations as strings ("250ms") or integer nanoseconds.
func (rc *RetryConfig) UnmarshalJSON(data []byte) error {
	type Alias RetryConfig
	aux := &struct {
		InitialDelay json.RawMessage `json:"initial_delay,omitempty"`
		MaxDelay     json.RawMessage `json:"max_delay,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(rc),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if len(aux.InitialDelay) > 0 {
		d, err := ParseDuration(aux.InitialDelay, "initial_delay")
		if err != nil {
			return err
		}
		rc.InitialDelay = d
	}
	if len(aux.MaxDelay) > 0 {
		d, err := ParseDuration(aux.MaxDelay, "max_delay")
		if err != nil {
			return err
		}
		rc.MaxDelay = d
	}
	return nil
}

// ParseDuration parses a JSON duration field given either as a duration
// string ("1h", "5m", "30s") or as integer nanoseconds.
func ParseDuration(data json.RawMessage, fieldName string) (time.Duration, error) {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		d, err := time.ParseDuration(str)
		if err != nil {
			return 0, fmt.Errorf("invalid duration string for %s: %w", fieldName, err)
		}
		return d, nil
	}

	var nsec int64
	if err := json.Unmarshal(data, &nsec); err != nil {
		return 0, fmt.Errorf("field %s must be either a duration string (e.g., '1h') or integer nanoseconds", fieldName)
	}
	return time.Duration(nsec), nil
}
