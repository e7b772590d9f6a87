package backend

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/hupe1980/clockcache"
)

// RetryConfig holds retry configuration.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      float64 // 0.0 to 1.0

	// Retryable reports whether err is worth another attempt.
	// Defaults to everything except ErrNotFound and context errors.
	Retryable func(err error) bool
}

// DefaultRetryConfig returns default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   50 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Jitter:      0.1,
	}
}

// Retry retries failed calls to another Backend with exponential backoff.
type Retry[K clockcache.Key, V any] struct {
	next clockcache.Backend[K, V]
	cfg  RetryConfig
}

// NewRetry wraps next. Zero fields of cfg take their defaults.
func NewRetry[K clockcache.Key, V any](next clockcache.Backend[K, V], cfg RetryConfig) *Retry[K, V] {
	def := DefaultRetryConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.Retryable == nil {
		cfg.Retryable = retryable
	}
	return &Retry[K, V]{next: next, cfg: cfg}
}

func retryable(err error) bool {
	return !errors.Is(err, ErrNotFound) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

// Load implements clockcache.Backend.
func (r *Retry[K, V]) Load(ctx context.Context, key K) (V, error) {
	var v V
	err := r.do(ctx, func(ctx context.Context) error {
		var err error
		v, err = r.next.Load(ctx, key)
		return err
	})
	return v, err
}

// Store implements clockcache.Backend.
func (r *Retry[K, V]) Store(ctx context.Context, key K, value V) error {
	return r.do(ctx, func(ctx context.Context) error {
		return r.next.Store(ctx, key, value)
	})
}

func (r *Retry[K, V]) do(ctx context.Context, fn func(context.Context) error) error {
	var err error
	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		if err = fn(ctx); err == nil || !r.cfg.Retryable(err) {
			return err
		}
		if attempt == r.cfg.MaxAttempts-1 {
			break
		}

		t := time.NewTimer(r.backoff(attempt))
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return errors.Join(err, ctx.Err())
		}
	}
	return err
}

func (r *Retry[K, V]) backoff(attempt int) time.Duration {
	delay := float64(r.cfg.BaseDelay) * math.Pow(2, float64(attempt))
	if delay > float64(r.cfg.MaxDelay) {
		delay = float64(r.cfg.MaxDelay)
	}
	if r.cfg.Jitter > 0 {
		delay += delay * r.cfg.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(delay)
}
