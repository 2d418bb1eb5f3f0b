// Package testutil provides testing utilities for tap-postmark
package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// DayHandler answers one API path for the day in the fromdate query
// parameter. It returns the status code and a value encoded as the body.
type DayHandler func(day string, r *http.Request) (int, any)

// PostmarkServer is a fake Postmark API. Unregistered paths answer 404 and
// requests without the expected token answer 401.
type PostmarkServer struct {
	*httptest.Server
	token string

	mu       sync.Mutex
	handlers map[string]DayHandler
	requests map[string]int
}

// NewPostmarkServer starts a server that is closed with the test.
func NewPostmarkServer(t *testing.T, token string) *PostmarkServer {
	t.Helper()
	s := &PostmarkServer{
		token:    token,
		handlers: map[string]DayHandler{},
		requests: map[string]int{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Handle registers h for path.
func (s *PostmarkServer) Handle(path string, h DayHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[path] = h
}

// Requests counts requests made to path.
func (s *PostmarkServer) Requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[path]
}

func (s *PostmarkServer) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests[r.URL.Path]++
	h, ok := s.handlers[r.URL.Path]
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if r.Header.Get("X-Postmark-Server-Token") != s.token {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ErrorCode":10,"Message":"Bad or missing Server API token."}`))
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"ErrorCode":404,"Message":"not found"}`))
		return
	}

	status, body := h(r.URL.Query().Get("fromdate"), r)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
