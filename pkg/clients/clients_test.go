package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/tap-postmark/pkg/errors"
)

func TestCircuitBreaker_OpensAndRecovers(t *testing.T) {
	now := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, SuccessThreshold: 1, Timeout: time.Minute}, zaptest.NewLogger(t))
	cb.now = func() time.Time { return now }

	cb.RecordFailure()
	assert.Equal(t, StateClosed, cb.State())
	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())
	assert.False(t, cb.Allow())

	now = now.Add(time.Minute)
	assert.True(t, cb.Allow())
	assert.Equal(t, StateHalfOpen, cb.State())

	cb.RecordSuccess()
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, Timeout: time.Second}, nil)
	cb.now = func() time.Time { return now }

	cb.RecordFailure()
	now = now.Add(time.Second)
	require.True(t, cb.Allow())
	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())

	err := cb.Execute(func() error { return nil })
	assert.True(t, errors.IsType(err, errors.ErrorTypeConnection))
}

func TestHTTPClient_Get(t *testing.T) {
	var gotHeader atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader.Store(r.Header.Get("X-Test"))
		assert.Equal(t, "tap-postmark", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewHTTPClient(nil, zaptest.NewLogger(t))
	defer c.Close()

	resp, err := c.Get(context.Background(), srv.URL, map[string]string{"X-Test": "yes"})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "yes", gotHeader.Load())
}

func TestHTTPClient_ServerErrorsOpenBreaker(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := DefaultHTTPConfig()
	cfg.FailureThreshold = 2
	c := NewHTTPClient(cfg, zaptest.NewLogger(t))

	for i := 0; i < 2; i++ {
		resp, err := c.Get(context.Background(), srv.URL, nil)
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.Equal(t, StateOpen, c.CircuitState())

	_, err := c.Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.True(t, errors.IsRetryable(err))
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPClient_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := DefaultHTTPConfig()
	cfg.CircuitBreakerEnabled = false
	c := NewHTTPClient(cfg, nil)

	_, err := c.Get(context.Background(), url, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConnection))
	assert.Equal(t, StateClosed, c.CircuitState())
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	assert.NoError(t, NewRateLimiter(0, 0).Wait(ctx))
	assert.NoError(t, NewRateLimiter(1000, 1).Wait(ctx))
	cancel()
	assert.Error(t, NewRateLimiter(0, 0).Wait(ctx))
}

func TestSnippet(t *testing.T) {
	body := []byte("{\"Message\": \"bad\",\n \"X-Postmark-Server-Token\": \"abc123\", \"auth\": \"Bearer xyz\"}")
	s := Snippet(body, 256)
	assert.NotContains(t, s, "abc123")
	assert.NotContains(t, s, "xyz")
	assert.NotContains(t, s, "\n")
	assert.Contains(t, s, "bad")

	long := Snippet([]byte("aaaaaaaaaa"), 4)
	assert.Equal(t, "aaaa...", long)
	assert.Equal(t, "", Snippet(nil, 10))
}
