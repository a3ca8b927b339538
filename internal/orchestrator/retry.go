package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RetryConfig configures retry behavior for provider calls.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts.
	// Default: 3
	MaxRetries int

	// InitialBackoff is the initial backoff duration.
	// Default: 1 second
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	// Default: 30 seconds
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	// Default: 2
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration for provider calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// ApplyDefaults sets default values for unset fields.
func (c *RetryConfig) ApplyDefaults() {
	defaults := DefaultRetryConfig()

	if c.MaxRetries == 0 {
		c.MaxRetries = defaults.MaxRetries
	}
	if c.InitialBackoff == 0 {
		c.InitialBackoff = defaults.InitialBackoff
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = defaults.MaxBackoff
	}
	if c.BackoffMultiplier == 0 {
		c.BackoffMultiplier = defaults.BackoffMultiplier
	}
}

// retryProviderCall retries a provider operation with exponential backoff.
// Context cancellation and deadline errors abort immediately; everything
// else is treated as transient.
func retryProviderCall(ctx context.Context, config RetryConfig, logger *zap.Logger, name string, operation func(context.Context) error) error {
	config.ApplyDefaults()

	var lastErr error
	backoff := config.InitialBackoff
	startTime := time.Now()

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		err := operation(ctx)
		if err == nil {
			if attempt > 0 {
				logger.Info("provider call recovered after retries",
					zap.String("provider", name),
					zap.Int("attempts", attempt),
					zap.Duration("total_time", time.Since(startTime)),
				)
			}
			return nil
		}

		lastErr = err

		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return fmt.Errorf("%s call: %w", name, ErrCancelled)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			// Per-attempt timeout: still transient unless the outer
			// context is also done.
			lastErr = fmt.Errorf("%w: %v", ErrProviderTimeout, err)
		}

		if attempt == config.MaxRetries {
			break
		}

		logger.Warn("provider call failed, retrying",
			zap.String("provider", name),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", config.MaxRetries+1),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s call: %w", name, ErrCancelled)
		case <-time.After(backoff):
			next := time.Duration(float64(backoff) * config.BackoffMultiplier)
			if next > config.MaxBackoff {
				next = config.MaxBackoff
			}
			backoff = next
		}
	}

	logger.Warn("provider call failed after all retries exhausted",
		zap.String("provider", name),
		zap.Int("total_attempts", config.MaxRetries+1),
		zap.Duration("total_time", time.Since(startTime)),
		zap.Error(lastErr),
	)

	return fmt.Errorf("%s call failed after %d retries: %w", name, config.MaxRetries, lastErr)
}
