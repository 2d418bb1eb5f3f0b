// Package metrics exposes Prometheus metrics for tap-postmark.
//
// # Basic Usage
//
//	metrics.RecordsEmitted.WithLabelValues("messages_outbound").Add(float64(n))
//
//	timer := metrics.NewTimer()
//	resp, err := client.Do(req)
//	metrics.APIRequestDuration.WithLabelValues(stream).Observe(timer.Stop().Seconds())
//
// Metrics register with the default registry at package init and are
// served by Serve when a metrics address is configured.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	// APIRequests counts Postmark API calls by stream and status code
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tap_postmark_api_requests_total",
			Help: "Total number of Postmark API requests",
		},
		[]string{"stream", "status"},
	)

	// APIRequestDuration tracks API latency in seconds
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tap_postmark_api_request_duration_seconds",
			Help:    "Postmark API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stream"},
	)

	// RecordsEmitted counts records handed to the destination
	RecordsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tap_postmark_records_emitted_total",
			Help: "Total number of cleaned records emitted",
		},
		[]string{"stream"},
	)

	// DaysCompleted counts days whose bookmark was advanced
	DaysCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tap_postmark_days_completed_total",
			Help: "Total number of days fully extracted",
		},
		[]string{"stream"},
	)

	// StreamErrors counts stream failures by error type
	StreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tap_postmark_stream_errors_total",
			Help: "Total number of aborted stream extractions",
		},
		[]string{"stream", "type"},
	)

	// FetchRetries counts whole-day fetch retries
	FetchRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tap_postmark_fetch_retries_total",
			Help: "Total number of retried day fetches",
		},
		[]string{"stream"},
	)

	// Bookmark is the bookmark of each stream as a unix timestamp
	Bookmark = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tap_postmark_bookmark_timestamp_seconds",
			Help: "Last completed day per stream",
		},
		[]string{"stream"},
	)

	// CircuitBreakerState is 0 closed, 1 open, 2 half-open
	CircuitBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tap_postmark_circuit_breaker_state",
			Help: "State of the API circuit breaker",
		},
	)
)

// Timer measures elapsed time
type Timer struct {
	start time.Time
}

// NewTimer starts a timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed time
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	return nil
}
