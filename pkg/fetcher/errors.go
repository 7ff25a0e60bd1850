package fetcher

import (
	"errors"
	"fmt"
)

// Common errors returned by the fetcher.
var (
	// ErrRetriesExhausted is returned when every permitted attempt for
	// one URL failed.
	ErrRetriesExhausted = errors.New("retry attempts exhausted")

	// ErrBatchAborted is returned when a batch fails and the whole
	// multi-batch operation stops.
	ErrBatchAborted = errors.New("batch aborted")

	// ErrContextCancelled is returned when the caller's context is
	// cancelled between attempts.
	ErrContextCancelled = errors.New("context cancelled")
)

// FailureKind classifies a failed attempt.
type FailureKind string

const (
	// FailureTimeout means the attempt exceeded its time budget.
	FailureTimeout FailureKind = "timeout"

	// FailureHTTPStatus means a response arrived with a status outside
	// the success range.
	FailureHTTPStatus FailureKind = "http_status"

	// FailureDecode means the response body was not valid JSON.
	FailureDecode FailureKind = "decode"

	// FailureNetwork means the transport failed before a response arrived.
	FailureNetwork FailureKind = "network"
)

// AttemptError describes one failed attempt for a URL.
type AttemptError struct {
	URL        string
	Attempt    int
	Kind       FailureKind
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *AttemptError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("fetch %s (attempt %d): %s error: %s", e.URL, e.Attempt, e.Kind, msg)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *AttemptError) Unwrap() error {
	return e.Err
}

// RetriesExhaustedError is the final failure for one URL. It carries the
// number of attempts made and the last underlying attempt failure.
type RetriesExhaustedError struct {
	URL      string
	Attempts int
	Last     *AttemptError
}

// Error implements the error interface.
func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("retry attempts exhausted for %s after %d attempts: %v", e.URL, e.Attempts, e.Last)
}

// Unwrap exposes the last attempt failure for errors.Is/As.
func (e *RetriesExhaustedError) Unwrap() error {
	return e.Last
}

// Is matches the ErrRetriesExhausted sentinel.
func (e *RetriesExhaustedError) Is(target error) bool {
	return target == ErrRetriesExhausted
}

// BatchAbortedError terminates a multi-batch fetch. It names the batch
// index and URL whose retries were exhausted.
type BatchAbortedError struct {
	Batch int
	URL   string
	Err   error
}

// Error implements the error interface.
func (e *BatchAbortedError) Error() string {
	return fmt.Sprintf("batch %d aborted: %v", e.Batch, e.Err)
}

// Unwrap exposes the per-URL failure for errors.Is/As.
func (e *BatchAbortedError) Unwrap() error {
	return e.Err
}

// Is matches the ErrBatchAborted sentinel.
func (e *BatchAbortedError) Is(target error) bool {
	return target == ErrBatchAborted
}
