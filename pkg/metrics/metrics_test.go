package metrics

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(RecordsEmitted.WithLabelValues("metrics_test"))
	RecordsEmitted.WithLabelValues("metrics_test").Add(3)
	assert.Equal(t, before+3, testutil.ToFloat64(RecordsEmitted.WithLabelValues("metrics_test")))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	DaysCompleted.WithLabelValues("handler_test").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `tap_postmark_days_completed_total{stream="handler_test"} 1`)
}

func TestServe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, Serve(ctx, "127.0.0.1:0", zap.NewNop()))

	assert.Error(t, Serve(ctx, "not-an-address", zap.NewNop()))
}

func TestTimer(t *testing.T) {
	assert.GreaterOrEqual(t, NewTimer().Stop().Nanoseconds(), int64(0))
}
