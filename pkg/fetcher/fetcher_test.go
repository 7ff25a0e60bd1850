package fetcher

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"
)

// stubExecutor is a scriptable Executor that tracks call counts and the
// peak number of concurrent executions.
type stubExecutor struct {
	fn    func(url string, attempt int) (any, error)
	delay time.Duration

	mu          sync.Mutex
	total       int
	calls       map[string]int
	inflight    int
	maxInflight int
}

func newStubExecutor(fn func(url string, attempt int) (any, error)) *stubExecutor {
	return &stubExecutor{
		fn:    fn,
		calls: make(map[string]int),
	}
}

func (s *stubExecutor) Execute(ctx context.Context, url string, attempt int) (any, error) {
	s.mu.Lock()
	s.total++
	s.calls[url]++
	s.inflight++
	if s.inflight > s.maxInflight {
		s.maxInflight = s.inflight
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inflight--
		s.mu.Unlock()
	}()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
		}
	}

	return s.fn(url, attempt)
}

func (s *stubExecutor) totalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *stubExecutor) callsFor(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[url]
}

func (s *stubExecutor) maxConcurrent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxInflight
}

// recordingObserver captures observer events for assertions.
type recordingObserver struct {
	mu        sync.Mutex
	attempts  []string
	failures  []string
	started   []int
	completed []int
}

func (o *recordingObserver) AttemptStarted(url string, attempt int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attempts = append(o.attempts, fmt.Sprintf("%s#%d", url, attempt))
}

func (o *recordingObserver) AttemptFailed(url string, attempt int, err *AttemptError) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures = append(o.failures, fmt.Sprintf("%s#%d:%s", url, attempt, err.Kind))
}

func (o *recordingObserver) BatchStarted(batch, size int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, batch)
}

func (o *recordingObserver) BatchCompleted(batch, size int, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed = append(o.completed, batch)
}

func newTestFetcher(t *testing.T, cfg Config, executor Executor) *Fetcher {
	t.Helper()

	if cfg.Observer == nil {
		cfg.Observer = NopObserver{}
	}

	f, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	f.SetExecutor(executor)
	return f
}

func TestFetchAll_OrderAndBatching(t *testing.T) {
	// Scenario: 5 URLs, batch size 2: batches [A,B], [C,D], [E].
	urls := []string{"/a", "/b", "/c", "/d", "/e"}

	stub := newStubExecutor(func(url string, attempt int) (any, error) {
		return "res" + url, nil
	})
	observer := &recordingObserver{}
	f := newTestFetcher(t, Config{BatchSize: 2, Observer: observer}, stub)

	results, err := f.FetchAll(context.Background(), urls)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := []any{"res/a", "res/b", "res/c", "res/d", "res/e"}
	if !reflect.DeepEqual(results, want) {
		t.Errorf("Results = %v, want %v", results, want)
	}

	if !reflect.DeepEqual(observer.started, []int{0, 1, 2}) {
		t.Errorf("Batches started = %v, want [0 1 2]", observer.started)
	}
	if !reflect.DeepEqual(observer.completed, []int{0, 1, 2}) {
		t.Errorf("Batches completed = %v, want [0 1 2]", observer.completed)
	}
	if stub.totalCalls() != 5 {
		t.Errorf("Executor calls = %d, want 5", stub.totalCalls())
	}
}

func TestFetchAll_OrderPreservedWithSkewedLatency(t *testing.T) {
	// Later URLs in a batch finish first; results must still follow
	// input order.
	urls := []string{"/slow", "/fast", "/mid"}

	stub := newStubExecutor(func(url string, attempt int) (any, error) {
		switch url {
		case "/slow":
			time.Sleep(60 * time.Millisecond)
		case "/mid":
			time.Sleep(20 * time.Millisecond)
		}
		return url, nil
	})
	f := newTestFetcher(t, Config{BatchSize: 3}, stub)

	results, err := f.FetchAll(context.Background(), urls)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	want := []any{"/slow", "/fast", "/mid"}
	if !reflect.DeepEqual(results, want) {
		t.Errorf("Results = %v, want %v", results, want)
	}
}

func TestFetchAll_ConcurrencyBound(t *testing.T) {
	urls := []string{"/1", "/2", "/3", "/4", "/5", "/6", "/7"}

	stub := newStubExecutor(func(url string, attempt int) (any, error) {
		return url, nil
	})
	stub.delay = 30 * time.Millisecond
	f := newTestFetcher(t, Config{BatchSize: 2}, stub)

	if _, err := f.FetchAll(context.Background(), urls); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if max := stub.maxConcurrent(); max > 2 {
		t.Errorf("Peak concurrency = %d, want at most 2", max)
	}
}

func TestFetchAll_FailFast(t *testing.T) {
	// Scenario: batch size 1, /b fails both attempts. /a completes
	// first, /c and /d must never be fetched, and no partial results
	// are returned.
	urls := []string{"/a", "/b", "/c", "/d"}

	stub := newStubExecutor(func(url string, attempt int) (any, error) {
		if url == "/b" {
			return nil, &AttemptError{
				URL:     url,
				Attempt: attempt,
				Kind:    FailureHTTPStatus,
				Message: "HTTP error! status: 500",
			}
		}
		return url, nil
	})
	observer := &recordingObserver{}
	f := newTestFetcher(t, Config{BatchSize: 1, Retries: 2, Observer: observer}, stub)

	results, err := f.FetchAll(context.Background(), urls)
	if results != nil {
		t.Errorf("Results = %v, want nil (no partial output)", results)
	}
	if !errors.Is(err, ErrBatchAborted) {
		t.Fatalf("Expected ErrBatchAborted, got %v", err)
	}

	var aborted *BatchAbortedError
	if !errors.As(err, &aborted) {
		t.Fatal("Expected *BatchAbortedError")
	}
	if aborted.Batch != 1 {
		t.Errorf("Batch = %d, want 1", aborted.Batch)
	}
	if aborted.URL != "/b" {
		t.Errorf("URL = %s, want /b", aborted.URL)
	}

	if got := stub.callsFor("/b"); got != 2 {
		t.Errorf("Calls for /b = %d, want 2", got)
	}
	if got := stub.callsFor("/c"); got != 0 {
		t.Errorf("Calls for /c = %d, want 0 (batch never started)", got)
	}
	if got := stub.callsFor("/d"); got != 0 {
		t.Errorf("Calls for /d = %d, want 0 (batch never started)", got)
	}

	if !reflect.DeepEqual(observer.started, []int{0, 1}) {
		t.Errorf("Batches started = %v, want [0 1]", observer.started)
	}
	if !reflect.DeepEqual(observer.completed, []int{0}) {
		t.Errorf("Batches completed = %v, want [0]", observer.completed)
	}
}

func TestFetchAll_FailingURLDoesNotCancelSiblings(t *testing.T) {
	// The failing URL settles fast; its batch siblings must still run
	// to completion before the batch resolves.
	urls := []string{"/fail", "/slow"}

	var slowDone sync.WaitGroup
	slowDone.Add(1)

	stub := newStubExecutor(func(url string, attempt int) (any, error) {
		if url == "/fail" {
			return nil, &AttemptError{URL: url, Attempt: attempt, Kind: FailureNetwork, Message: "down"}
		}
		time.Sleep(50 * time.Millisecond)
		slowDone.Done()
		return url, nil
	})
	f := newTestFetcher(t, Config{BatchSize: 2, Retries: 1}, stub)

	_, err := f.FetchAll(context.Background(), urls)
	if !errors.Is(err, ErrBatchAborted) {
		t.Fatalf("Expected ErrBatchAborted, got %v", err)
	}

	// Completes without waiting if the sibling already ran to the end.
	slowDone.Wait()

	if got := stub.callsFor("/slow"); got != 1 {
		t.Errorf("Calls for /slow = %d, want 1", got)
	}
}

func TestFetchAll_EmptyInput(t *testing.T) {
	stub := newStubExecutor(func(url string, attempt int) (any, error) {
		return url, nil
	})
	f := newTestFetcher(t, Config{}, stub)

	results, err := f.FetchAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if results == nil {
		t.Fatal("Expected non-nil empty result")
	}
	if len(results) != 0 {
		t.Errorf("Results length = %d, want 0", len(results))
	}
	if stub.totalCalls() != 0 {
		t.Errorf("Executor calls = %d, want 0", stub.totalCalls())
	}
}

func TestFetchAll_RetryWithinBatch(t *testing.T) {
	// Scenario: one URL, fails attempts 1 and 2, succeeds on 3.
	stub := newStubExecutor(func(url string, attempt int) (any, error) {
		if attempt < 3 {
			return nil, &AttemptError{URL: url, Attempt: attempt, Kind: FailureNetwork, Message: "down"}
		}
		return "res", nil
	})
	observer := &recordingObserver{}
	f := newTestFetcher(t, Config{Retries: 3, Observer: observer}, stub)

	results, err := f.FetchAll(context.Background(), []string{"/a"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !reflect.DeepEqual(results, []any{"res"}) {
		t.Errorf("Results = %v, want [res]", results)
	}
	if stub.totalCalls() != 3 {
		t.Errorf("Executor calls = %d, want 3", stub.totalCalls())
	}

	wantAttempts := []string{"/a#1", "/a#2", "/a#3"}
	if !reflect.DeepEqual(observer.attempts, wantAttempts) {
		t.Errorf("Attempts = %v, want %v", observer.attempts, wantAttempts)
	}
	wantFailures := []string{"/a#1:network", "/a#2:network"}
	if !reflect.DeepEqual(observer.failures, wantFailures) {
		t.Errorf("Failures = %v, want %v", observer.failures, wantFailures)
	}
}
