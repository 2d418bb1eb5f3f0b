// Package base holds building blocks shared by the source and destination
// connectors.
package base

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/ajitpratap0/tap-postmark/pkg/config"
	"github.com/ajitpratap0/tap-postmark/pkg/errors"
)

// RetryPolicy defines retry behavior
type RetryPolicy struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	Multiplier      float64
	RandomizeFactor float64

	// OnRetry is called before each wait with the attempt that failed (1-based).
	OnRetry func(attempt int, delay time.Duration, err error)
}

// NewRetryPolicy creates a new retry policy with exponential backoff
func NewRetryPolicy(maxAttempts int, initialDelay time.Duration) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:     maxAttempts,
		InitialDelay:    initialDelay,
		MaxDelay:        5 * time.Minute,
		Multiplier:      2.0,
		RandomizeFactor: 0.25,
	}
}

// NewRetryPolicyFromConfig builds the policy used for whole-day fetches.
func NewRetryPolicyFromConfig(cfg config.ReliabilityConfig) *RetryPolicy {
	rp := NewRetryPolicy(max(cfg.RetryAttempts, 1), cfg.RetryDelay)
	if cfg.MaxRetryDelay > 0 {
		rp.WithMaxDelay(cfg.MaxRetryDelay)
	}
	if cfg.RetryMultiplier >= 1 {
		rp.WithMultiplier(cfg.RetryMultiplier)
	}
	return rp
}

// Execute runs fn until it succeeds or the attempts are exhausted.
func (rp *RetryPolicy) Execute(ctx context.Context, fn func() error) error {
	return rp.ExecuteWithCondition(ctx, fn, func(error) bool { return true })
}

// ExecuteWithCondition retries fn only while shouldRetry approves the
// error. A rejected error is returned unwrapped.
func (rp *RetryPolicy) ExecuteWithCondition(ctx context.Context, fn func() error, shouldRetry func(error) bool) error {
	attempts := max(rp.MaxAttempts, 1)
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !shouldRetry(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}

		delay := rp.calculateDelay(attempt)
		if rp.OnRetry != nil {
			rp.OnRetry(attempt+1, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Wrap(ctx.Err(), errors.ErrorTypeTimeout,
				fmt.Sprintf("retry cancelled after %d attempts", attempt+1))
		case <-timer.C:
		}
	}

	if attempts == 1 {
		return lastErr
	}
	return fmt.Errorf("all %d attempts failed: %w", attempts, lastErr)
}

// calculateDelay calculates the delay for a given attempt
func (rp *RetryPolicy) calculateDelay(attempt int) time.Duration {
	delay := float64(rp.InitialDelay) * math.Pow(rp.Multiplier, float64(attempt))

	if delay > float64(rp.MaxDelay) {
		delay = float64(rp.MaxDelay)
	}

	if rp.RandomizeFactor > 0 {
		delta := rp.RandomizeFactor * delay
		minDelay := delay - delta
		maxDelay := delay + delta
		delay = minDelay + (rand.Float64() * (maxDelay - minDelay)) // #nosec G404 -- jitter only
	}

	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// WithMaxDelay sets the maximum delay
func (rp *RetryPolicy) WithMaxDelay(maxDelay time.Duration) *RetryPolicy {
	rp.MaxDelay = maxDelay
	return rp
}

// WithMultiplier sets the backoff multiplier
func (rp *RetryPolicy) WithMultiplier(multiplier float64) *RetryPolicy {
	rp.Multiplier = multiplier
	return rp
}

// WithRandomizeFactor sets the randomization factor
func (rp *RetryPolicy) WithRandomizeFactor(factor float64) *RetryPolicy {
	rp.RandomizeFactor = factor
	return rp
}

// NoRetryPolicy makes a single attempt.
func NoRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:  1,
		InitialDelay: 0,
		MaxDelay:     0,
		Multiplier:   1.0,
	}
}
