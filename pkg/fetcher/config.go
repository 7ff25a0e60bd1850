package fetcher

import (
	"fmt"
	"time"
)

// Default values applied for zero-valued Config fields.
const (
	DefaultTimeout   = 5 * time.Second
	DefaultRetries   = 3
	DefaultBatchSize = 5
)

// Config holds the fetcher configuration.
type Config struct {
	// Timeout is the time budget for a single attempt. The in-flight
	// request is cancelled when the budget elapses. Each retry gets a
	// fresh budget.
	Timeout time.Duration

	// Retries is the maximum number of attempts per URL, including the
	// first request.
	Retries int

	// BatchSize is the maximum number of requests in flight at once.
	BatchSize int

	// RetryDelay is the wait between failed attempts. Zero retries
	// immediately.
	RetryDelay time.Duration

	// UserAgent header sent with every request (optional).
	UserAgent string

	// Observer receives attempt and batch lifecycle events.
	// Defaults to a zerolog-backed LogObserver.
	Observer Observer
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:   DefaultTimeout,
		Retries:   DefaultRetries,
		BatchSize: DefaultBatchSize,
	}
}

// withDefaults fills zero-valued fields with their defaults. Fields are
// independently overridable.
func (c Config) withDefaults() Config {
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Retries == 0 {
		c.Retries = DefaultRetries
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	return c
}

// validate rejects configurations that survived withDefaults with
// non-positive values.
func (c Config) validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive (got %v)", c.Timeout)
	}
	if c.Retries < 1 {
		return fmt.Errorf("retries must be >= 1 (got %d)", c.Retries)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("batch_size must be >= 1 (got %d)", c.BatchSize)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must not be negative (got %v)", c.RetryDelay)
	}
	return nil
}
