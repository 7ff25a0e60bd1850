package fetcher

import (
	"context"
	"errors"
	"time"

	"github.com/Sternrassler/batchfetch/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Prometheus metrics for batch operations.
var fetchBatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "fetch_batches_total",
	Help: "Total batches by outcome",
}, []string{"outcome"})

// Fetcher retrieves and decodes JSON documents for ordered URL lists with
// bounded concurrency and per-attempt retries.
type Fetcher struct {
	executor Executor
	config   Config
	observer Observer
	logger   zerolog.Logger
}

// New creates a fetcher. Zero-valued Config fields fall back to defaults;
// negative values are rejected.
func New(cfg Config) (*Fetcher, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := logging.NewLogger("fetcher")

	observer := cfg.Observer
	if observer == nil {
		observer = NewLogObserver(logger)
	}

	return &Fetcher{
		executor: NewHTTPExecutor(cfg.UserAgent),
		config:   cfg,
		observer: observer,
		logger:   logger,
	}, nil
}

// SetExecutor replaces the HTTP executor (for testing).
func (f *Fetcher) SetExecutor(e Executor) {
	f.executor = e
}

// FetchAll fetches every URL and returns the decoded bodies in input order.
//
// URLs are processed in batches of BatchSize. Within a batch every URL is
// fetched concurrently and the batch settles completely before the next one
// starts, so at most BatchSize requests are ever in flight. If any URL
// exhausts its retries the operation aborts: remaining batches never start
// and no partial results are returned.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) ([]any, error) {
	start := time.Now()
	results := make([]any, len(urls))

	batchSize := f.config.BatchSize
	batches := (len(urls) + batchSize - 1) / batchSize

	f.logger.Info().
		Int("urls", len(urls)).
		Int("batches", batches).
		Int("batch_size", batchSize).
		Msg("Starting batched fetch")

	for batch := 0; batch < batches; batch++ {
		lo := batch * batchSize
		hi := lo + batchSize
		if hi > len(urls) {
			hi = len(urls)
		}
		slice := urls[lo:hi]

		batchStart := time.Now()
		f.observer.BatchStarted(batch, len(slice))

		// Plain errgroup, not WithContext: every request in the batch
		// settles before Wait returns, and a failing URL never cancels
		// its siblings. Each goroutine writes its own result slot, so
		// no lock is needed.
		var g errgroup.Group
		for i, u := range slice {
			u := u
			idx := lo + i
			g.Go(func() error {
				value, err := f.fetchWithRetry(ctx, u)
				if err != nil {
					return err
				}
				results[idx] = value
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			fetchBatchesTotal.WithLabelValues("aborted").Inc()
			aborted := &BatchAbortedError{Batch: batch, Err: err}
			var exhausted *RetriesExhaustedError
			if errors.As(err, &exhausted) {
				aborted.URL = exhausted.URL
			}
			f.logger.Error().
				Err(err).
				Int("batch", batch).
				Msg("Batch failed, aborting fetch")
			return nil, aborted
		}

		fetchBatchesTotal.WithLabelValues("completed").Inc()
		f.observer.BatchCompleted(batch, len(slice), time.Since(batchStart))
	}

	f.logger.Info().
		Int("urls", len(urls)).
		Int("batches", batches).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return results, nil
}
