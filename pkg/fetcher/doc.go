// Package fetcher retrieves ordered lists of JSON documents over HTTP with
// bounded concurrency, per-attempt timeouts, and retries.
//
// URLs are partitioned into fixed-size batches. Each batch is fetched
// concurrently; batches run strictly one after another, which bounds the
// number of in-flight requests to the batch size. Results are reassembled
// into input order before they are returned.
//
// Example usage:
//
//	f, err := fetcher.New(fetcher.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//	results, err := f.FetchAll(ctx, urls)
//
// Failure policy is fail-fast: one URL that fails every attempt aborts the
// whole operation. The batch it belongs to still settles completely, no
// later batch starts, and no partial results are returned.
package fetcher
