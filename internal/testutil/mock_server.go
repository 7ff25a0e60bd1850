// Package testutil provides testing utilities for the batch fetcher.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// Route defines the behavior for one mock endpoint.
type Route struct {
	StatusCode int
	Body       string
	Delay      time.Duration

	// FailFirst makes the first N requests to this path answer with
	// FailStatus (default 500) before Body is served.
	FailFirst  int
	FailStatus int
}

// MockServer is a configurable JSON origin for fetcher tests. It tracks
// request counts per path and the peak number of concurrent requests.
type MockServer struct {
	server *httptest.Server

	mu          sync.Mutex
	routes      map[string]Route
	hits        map[string]int
	total       int
	inflight    int
	maxInflight int
}

// NewMockServer creates and starts a mock server.
func NewMockServer() *MockServer {
	mock := &MockServer{
		routes: make(map[string]Route),
		hits:   make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))

	return mock
}

func (m *MockServer) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.total++
	m.hits[r.URL.Path]++
	hit := m.hits[r.URL.Path]
	m.inflight++
	if m.inflight > m.maxInflight {
		m.maxInflight = m.inflight
	}
	route, exists := m.routes[r.URL.Path]
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inflight--
		m.mu.Unlock()
	}()

	if !exists {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, `{"error":"not found"}`)
		return
	}

	if route.Delay > 0 {
		time.Sleep(route.Delay)
	}

	if hit <= route.FailFirst {
		status := route.FailStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"error":"scripted failure %d"}`, hit)
		return
	}

	status := route.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprint(w, route.Body)
}

// URL returns the mock server URL.
func (m *MockServer) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockServer) Close() {
	m.server.Close()
}

// SetRoute configures the behavior for a path.
func (m *MockServer) SetRoute(path string, route Route) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[path] = route
}

// SetJSON configures a path to answer 200 with the given JSON body.
func (m *MockServer) SetJSON(path, body string) {
	m.SetRoute(path, Route{Body: body})
}

// RequestCount returns the total number of requests received.
func (m *MockServer) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

// PathCount returns the number of requests received for one path.
func (m *MockServer) PathCount(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits[path]
}

// MaxConcurrent returns the peak number of concurrently handled requests.
func (m *MockServer) MaxConcurrent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxInflight
}

// Reset clears all tracking counters and routes.
func (m *MockServer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = make(map[string]Route)
	m.hits = make(map[string]int)
	m.total = 0
	m.maxInflight = 0
}
