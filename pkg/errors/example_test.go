// Package errors provides examples of structured error handling in tap-postmark.
package errors_test

import (
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ajitpratap0/tap-postmark/pkg/errors"
)

// Example demonstrates basic error creation and wrapping.
func Example() {
	// Create a new error with type
	err := errors.New(errors.ErrorTypeMissingField, "payload has no key \"Sent\"").
		WithDetail(errors.DetailField, "Sent")

	fmt.Println(err.Error())

	// Output:
	// missing_field: payload has no key "Sent"
}

// ExampleWrap shows how to wrap existing errors with context.
func ExampleWrap() {
	err := errors.Wrap(io.EOF, errors.ErrorTypeMalformedResponse, "failed to decode response").
		WithDetail(errors.DetailStream, "stats_outbound_bounces")

	if errors.IsType(err, errors.ErrorTypeMalformedResponse) {
		fmt.Println("This is a malformed response")
	}

	// Output:
	// This is a malformed response
}

func TestIsRetryable(t *testing.T) {
	httpErr := func(code int) error {
		return errors.Newf(errors.ErrorTypeHTTP, "status %d", code).
			WithDetail(errors.DetailStatusCode, code)
	}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", io.EOF, false},
		{"connection", errors.New(errors.ErrorTypeConnection, "refused"), true},
		{"rate limit", errors.New(errors.ErrorTypeRateLimit, "slow down"), true},
		{"http 429", httpErr(http.StatusTooManyRequests), true},
		{"http 503", httpErr(http.StatusServiceUnavailable), true},
		{"http 401", httpErr(http.StatusUnauthorized), false},
		{"http 422", httpErr(http.StatusUnprocessableEntity), false},
		{"conversion", errors.New(errors.ErrorTypeConversion, "bad"), false},
		{"wrapped http 502", errors.Wrap(httpErr(http.StatusBadGateway), errors.ErrorTypeData, "day failed"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.IsRetryable(tt.err))
		})
	}
}

func TestIsType_WalksChain(t *testing.T) {
	inner := errors.New(errors.ErrorTypeConversion, "could not convert")
	outer := errors.Wrap(inner, errors.ErrorTypeData, "stream failed")

	assert.True(t, errors.IsType(outer, errors.ErrorTypeData))
	assert.True(t, errors.IsType(outer, errors.ErrorTypeConversion))
	assert.False(t, errors.IsType(outer, errors.ErrorTypeHTTP))
	assert.Nil(t, errors.Wrap(nil, errors.ErrorTypeData, "nothing"))
}

func TestStatusCode(t *testing.T) {
	err := errors.Wrap(
		errors.New(errors.ErrorTypeHTTP, "denied").WithDetail(errors.DetailStatusCode, 401),
		errors.ErrorTypeData, "stream failed",
	)
	assert.Equal(t, 401, errors.StatusCode(err))
	assert.Equal(t, 0, errors.StatusCode(io.EOF))
}
