package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Sternrassler/batchfetch/pkg/logging"
	"github.com/rs/zerolog"
)

// Executor performs one bounded-time attempt to fetch and decode a single
// URL. The attempt's time budget arrives through the context deadline.
// Implementations classify failures as *AttemptError and never retry.
type Executor interface {
	Execute(ctx context.Context, url string, attempt int) (any, error)
}

// HTTPExecutor is the production Executor backed by net/http.
type HTTPExecutor struct {
	client    *http.Client
	userAgent string
	logger    zerolog.Logger
}

// NewHTTPExecutor creates an HTTP executor. The per-attempt deadline is
// carried by the request context, so the underlying client has no timeout
// of its own.
func NewHTTPExecutor(userAgent string) *HTTPExecutor {
	return &HTTPExecutor{
		client:    &http.Client{},
		userAgent: userAgent,
		logger:    logging.NewLogger("executor"),
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (e *HTTPExecutor) SetHTTPClient(client *http.Client) {
	e.client = client
}

// Execute performs a single GET attempt against url and decodes the JSON
// body.
func (e *HTTPExecutor) Execute(ctx context.Context, url string, attempt int) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &AttemptError{
			URL:     url,
			Attempt: attempt,
			Kind:    FailureNetwork,
			Message: "create request",
			Err:     err,
		}
	}
	req.Header.Set("Accept", "application/json")
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}

	e.logger.Debug().
		Str("url", url).
		Int("attempt", attempt).
		Msg("Executing request")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, e.classify(url, attempt, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &AttemptError{
			URL:        url,
			Attempt:    attempt,
			Kind:       FailureHTTPStatus,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP error! status: %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, e.classify(url, attempt, err)
	}

	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return nil, &AttemptError{
			URL:     url,
			Attempt: attempt,
			Kind:    FailureDecode,
			Message: err.Error(),
			Err:     err,
		}
	}

	return value, nil
}

// classify separates deadline expiry from transport failures.
func (e *HTTPExecutor) classify(url string, attempt int, err error) *AttemptError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &AttemptError{
			URL:     url,
			Attempt: attempt,
			Kind:    FailureTimeout,
			Message: "request timed out",
			Err:     err,
		}
	}
	return &AttemptError{
		URL:     url,
		Attempt: attempt,
		Kind:    FailureNetwork,
		Message: err.Error(),
		Err:     err,
	}
}
