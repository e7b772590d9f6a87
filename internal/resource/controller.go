package resource

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds backend limits. Zero values mean unlimited.
type Config struct {
	// MaxInFlight is the maximum number of concurrent backend calls.
	MaxInFlight int64

	// OpsPerSec is the sustained backend call rate.
	OpsPerSec float64

	// Burst is the call-rate bucket size. Defaults to max(1, OpsPerSec).
	Burst int

	// BytesPerSec is the sustained byte throughput of encoded values.
	BytesPerSec int64
}

// Controller enforces a Config.
type Controller struct {
	cfg Config

	sem      *semaphore.Weighted // nil if unlimited
	inFlight atomic.Int64

	ops   *rate.Limiter // nil if unlimited
	bytes *rate.Limiter // nil if unlimited
}

// NewController creates a new controller.
func NewController(cfg Config) *Controller {
	c := &Controller{cfg: cfg}

	if cfg.MaxInFlight > 0 {
		c.sem = semaphore.NewWeighted(cfg.MaxInFlight)
	}

	if cfg.OpsPerSec > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = max(1, int(cfg.OpsPerSec))
		}
		c.ops = rate.NewLimiter(rate.Limit(cfg.OpsPerSec), burst)
	}

	if cfg.BytesPerSec > 0 {
		c.bytes = rate.NewLimiter(rate.Limit(cfg.BytesPerSec), int(cfg.BytesPerSec))
	}

	return c
}

// Acquire waits for a call-rate token and an in-flight slot.
// Every successful Acquire must be paired with Release.
func (c *Controller) Acquire(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if c.ops != nil {
		if err := c.ops.Wait(ctx); err != nil {
			return err
		}
	}
	if c.sem != nil {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return err
		}
	}
	c.inFlight.Add(1)
	return nil
}

// TryAcquire takes a call-rate token and an in-flight slot without blocking.
func (c *Controller) TryAcquire() bool {
	if c == nil {
		return true
	}
	if c.sem != nil && !c.sem.TryAcquire(1) {
		return false
	}
	if c.ops != nil && !c.ops.AllowN(time.Now(), 1) {
		if c.sem != nil {
			c.sem.Release(1)
		}
		return false
	}
	c.inFlight.Add(1)
	return true
}

// Release returns an in-flight slot.
func (c *Controller) Release() {
	if c == nil {
		return
	}
	if c.sem != nil {
		c.sem.Release(1)
	}
	c.inFlight.Add(-1)
}

// InFlight returns the number of calls between Acquire and Release.
func (c *Controller) InFlight() int64 {
	if c == nil {
		return 0
	}
	return c.inFlight.Load()
}

// AcquireBytes waits until the byte limit allows n bytes.
// Requests larger than the bucket are split.
func (c *Controller) AcquireBytes(ctx context.Context, n int) error {
	if c == nil || c.bytes == nil || n <= 0 {
		return nil
	}
	burst := c.bytes.Burst()
	for n > 0 {
		chunk := min(n, burst)
		if err := c.bytes.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

// Config returns the configured limits.
func (c *Controller) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.cfg
}
