package base

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/tap-postmark/pkg/config"
	"github.com/ajitpratap0/tap-postmark/pkg/errors"
)

func fastPolicy(attempts int) *RetryPolicy {
	return NewRetryPolicy(attempts, time.Millisecond).
		WithMaxDelay(2 * time.Millisecond).
		WithRandomizeFactor(0)
}

func TestRetryPolicy_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	var retried []int
	rp := fastPolicy(3)
	rp.OnRetry = func(attempt int, _ time.Duration, _ error) { retried = append(retried, attempt) }

	err := rp.Execute(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New(errors.ErrorTypeConnection, "reset")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestRetryPolicy_ExhaustedKeepsCause(t *testing.T) {
	calls := 0
	err := fastPolicy(2).Execute(context.Background(), func() error {
		calls++
		return errors.New(errors.ErrorTypeTimeout, "slow")
	})

	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Contains(t, err.Error(), "all 2 attempts failed")
	assert.True(t, errors.IsType(err, errors.ErrorTypeTimeout))
}

func TestRetryPolicy_ConditionStopsImmediately(t *testing.T) {
	calls := 0
	cause := errors.New(errors.ErrorTypeMalformedResponse, "not json")
	err := fastPolicy(5).ExecuteWithCondition(context.Background(), func() error {
		calls++
		return cause
	}, errors.IsRetryable)

	assert.Equal(t, 1, calls)
	assert.Same(t, cause, err)
}

func TestRetryPolicy_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rp := NewRetryPolicy(5, time.Hour).WithRandomizeFactor(0)
	rp.OnRetry = func(int, time.Duration, error) { cancel() }

	err := rp.Execute(ctx, func() error { return errors.New(errors.ErrorTypeConnection, "down") })
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeTimeout))
}

func TestRetryPolicy_SingleAttemptReturnsCause(t *testing.T) {
	cause := errors.New(errors.ErrorTypeConnection, "down")
	err := NoRetryPolicy().Execute(context.Background(), func() error { return cause })
	assert.Same(t, cause, err)
}

func TestCalculateDelay(t *testing.T) {
	rp := NewRetryPolicy(5, 100*time.Millisecond).WithRandomizeFactor(0).WithMaxDelay(300 * time.Millisecond)
	assert.Equal(t, 100*time.Millisecond, rp.calculateDelay(0))
	assert.Equal(t, 200*time.Millisecond, rp.calculateDelay(1))
	assert.Equal(t, 300*time.Millisecond, rp.calculateDelay(2))

	rp.WithRandomizeFactor(0.5)
	for i := 0; i < 20; i++ {
		d := rp.calculateDelay(0)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}

func TestNewRetryPolicyFromConfig(t *testing.T) {
	cfg := config.NewTapConfig().Reliability
	rp := NewRetryPolicyFromConfig(cfg)
	assert.Equal(t, 3, rp.MaxAttempts)
	assert.Equal(t, time.Second, rp.InitialDelay)
	assert.Equal(t, 30*time.Second, rp.MaxDelay)
	assert.Equal(t, 2.0, rp.Multiplier)

	cfg.RetryAttempts = 0
	assert.Equal(t, 1, NewRetryPolicyFromConfig(cfg).MaxAttempts)

	cfg.RetryMultiplier = 3
	cfg.MaxRetryDelay = 5 * time.Second
	rp = NewRetryPolicyFromConfig(cfg)
	assert.Equal(t, 3.0, rp.Multiplier)
	assert.Equal(t, 5*time.Second, rp.MaxDelay)

	cfg.RetryMultiplier = 0.5
	assert.Equal(t, 2.0, NewRetryPolicyFromConfig(cfg).Multiplier)
}
