// Package metrics provides the centralized Prometheus registry reference for
// the batch fetcher. All metrics are defined in pkg/fetcher next to the code
// that records them; this package documents the catalogue.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the fetcher.
// All metrics are automatically registered via promauto in pkg/fetcher.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Attempt Metrics (pkg/fetcher):
//   - fetch_requests_total{status} (Counter): Attempts by result
//     (success, timeout, http_status, decode, network)
//   - fetch_request_duration_seconds (Histogram): Single attempt duration
//   - fetch_inflight_requests (Gauge): Attempts currently in flight;
//     never exceeds the configured batch size
//
// Retry Metrics (pkg/fetcher):
//   - fetch_retries_total{failure_kind} (Counter): Retry attempts by failure kind
//   - fetch_retry_exhausted_total{failure_kind} (Counter): URLs that exhausted
//     their retry budget
//
// Batch Metrics (pkg/fetcher):
//   - fetch_batches_total{outcome} (Counter): Batches by outcome
//     (completed, aborted)
//
// Example Prometheus Queries:
//
//   # Attempt Error Rate
//   sum(rate(fetch_requests_total{status!="success"}[5m])) /
//   sum(rate(fetch_requests_total[5m]))
//
//   # Concurrency Bound Check
//   max_over_time(fetch_inflight_requests[5m])
//
//   # P95 Attempt Latency
//   histogram_quantile(0.95, rate(fetch_request_duration_seconds_bucket[5m]))
//
//   # Abort Rate
//   rate(fetch_batches_total{outcome="aborted"}[5m])
