package fetcher

import (
	"errors"
	"testing"
)

func TestAttemptError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AttemptError
		want string
	}{
		{
			name: "message set",
			err: &AttemptError{
				URL:     "http://example.com/a",
				Attempt: 2,
				Kind:    FailureHTTPStatus,
				Message: "HTTP error! status: 503",
			},
			want: "fetch http://example.com/a (attempt 2): http_status error: HTTP error! status: 503",
		},
		{
			name: "falls back to wrapped error",
			err: &AttemptError{
				URL:     "http://example.com/b",
				Attempt: 1,
				Kind:    FailureNetwork,
				Err:     errors.New("connection refused"),
			},
			want: "fetch http://example.com/b (attempt 1): network error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRetriesExhaustedError_Matching(t *testing.T) {
	last := &AttemptError{
		URL:     "http://example.com/a",
		Attempt: 3,
		Kind:    FailureTimeout,
		Message: "request timed out",
	}
	err := error(&RetriesExhaustedError{URL: "http://example.com/a", Attempts: 3, Last: last})

	if !errors.Is(err, ErrRetriesExhausted) {
		t.Error("Expected errors.Is(err, ErrRetriesExhausted) to be true")
	}

	var ae *AttemptError
	if !errors.As(err, &ae) {
		t.Fatal("Expected errors.As to find the last AttemptError")
	}
	if ae.Kind != FailureTimeout {
		t.Errorf("Last failure kind = %s, want %s", ae.Kind, FailureTimeout)
	}
}

func TestBatchAbortedError_Chain(t *testing.T) {
	exhausted := &RetriesExhaustedError{
		URL:      "http://example.com/b",
		Attempts: 2,
		Last: &AttemptError{
			URL:     "http://example.com/b",
			Attempt: 2,
			Kind:    FailureNetwork,
			Message: "connection refused",
		},
	}
	err := error(&BatchAbortedError{Batch: 1, URL: exhausted.URL, Err: exhausted})

	if !errors.Is(err, ErrBatchAborted) {
		t.Error("Expected errors.Is(err, ErrBatchAborted) to be true")
	}
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Error("Expected ErrRetriesExhausted to be found through the chain")
	}

	var re *RetriesExhaustedError
	if !errors.As(err, &re) {
		t.Fatal("Expected errors.As to find the RetriesExhaustedError")
	}
	if re.URL != "http://example.com/b" {
		t.Errorf("URL = %s, want http://example.com/b", re.URL)
	}
	if re.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", re.Attempts)
	}
}
