package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for attempt and retry operations.
var (
	fetchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fetch_requests_total",
		Help: "Total fetch attempts by result status",
	}, []string{"status"})

	fetchRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fetch_request_duration_seconds",
		Help:    "Single attempt duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	})

	fetchInflightRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fetch_inflight_requests",
		Help: "Number of fetch attempts currently in flight",
	})

	fetchRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fetch_retries_total",
		Help: "Total number of retry attempts by failure kind",
	}, []string{"failure_kind"})

	fetchRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fetch_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by failure kind",
	}, []string{"failure_kind"})
)

// fetchWithRetry runs bounded attempts for one URL. Each attempt gets a
// fresh timeout budget, and the budget's timer is released on every exit
// path. The attempt counter makes the retry bound explicit: between 1 and
// Retries attempts are made, never more.
func (f *Fetcher) fetchWithRetry(ctx context.Context, url string) (any, error) {
	var last *AttemptError

	for attempt := 1; attempt <= f.config.Retries; attempt++ {
		f.observer.AttemptStarted(url, attempt)

		value, err := f.runAttempt(ctx, url, attempt)
		if err == nil {
			if attempt > 1 {
				f.logger.Info().
					Str("url", url).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return value, nil
		}

		var ae *AttemptError
		if !errors.As(err, &ae) {
			ae = &AttemptError{
				URL:     url,
				Attempt: attempt,
				Kind:    FailureNetwork,
				Message: err.Error(),
				Err:     err,
			}
		}
		last = ae
		f.observer.AttemptFailed(url, attempt, ae)

		// A cancelled caller is not a transient failure; stop retrying.
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		}

		if attempt >= f.config.Retries {
			break
		}

		fetchRetriesTotal.WithLabelValues(string(ae.Kind)).Inc()

		if f.config.RetryDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
			case <-time.After(f.config.RetryDelay):
			}
		}
	}

	fetchRetryExhaustedTotal.WithLabelValues(string(last.Kind)).Inc()
	f.logger.Warn().
		Str("url", url).
		Int("attempts", f.config.Retries).
		Str("failure_kind", string(last.Kind)).
		Msg("Retry attempts exhausted")

	return nil, &RetriesExhaustedError{
		URL:      url,
		Attempts: f.config.Retries,
		Last:     last,
	}
}

// runAttempt executes one attempt under a fresh deadline and records
// attempt metrics.
func (f *Fetcher) runAttempt(ctx context.Context, url string, attempt int) (any, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	fetchInflightRequests.Inc()
	start := time.Now()
	value, err := f.executor.Execute(attemptCtx, url, attempt)
	fetchRequestDuration.Observe(time.Since(start).Seconds())
	fetchInflightRequests.Dec()

	if err != nil {
		status := "error"
		var ae *AttemptError
		if errors.As(err, &ae) {
			status = string(ae.Kind)
		}
		fetchRequestsTotal.WithLabelValues(status).Inc()
		return nil, err
	}

	fetchRequestsTotal.WithLabelValues("success").Inc()
	return value, nil
}
