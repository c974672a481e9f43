// Package resource bounds concurrency and paces I/O for row fetches
// issued by the pruning engine on a cache miss.
package resource

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits for a single engine run.
type Config struct {
	// MaxInFlightFetches caps the number of concurrent RowSource.Fetch
	// calls across all workers. If 0, unlimited.
	MaxInFlightFetches int64

	// FetchBytesPerSec paces fetched row bytes to emulate a page-I/O
	// budget. If 0, unlimited.
	FetchBytesPerSec int64
}

// Controller bounds concurrent row fetches and optionally paces their
// byte throughput. A nil *Controller behaves as unlimited everywhere;
// every method is nil-receiver safe.
type Controller struct {
	fetchSem     *semaphore.Weighted // nil if unlimited
	fetchLimiter *rate.Limiter
}

// New creates a Controller from cfg. A zero Config is unlimited.
func New(cfg Config) *Controller {
	c := &Controller{}

	if cfg.MaxInFlightFetches > 0 {
		c.fetchSem = semaphore.NewWeighted(cfg.MaxInFlightFetches)
	}

	if cfg.FetchBytesPerSec > 0 {
		c.fetchLimiter = rate.NewLimiter(rate.Limit(cfg.FetchBytesPerSec), int(cfg.FetchBytesPerSec))
	}

	return c
}

// AcquireFetch blocks until a fetch slot is available, returning a
// release func that must be called exactly once.
func (c *Controller) AcquireFetch(ctx context.Context) (release func(), err error) {
	if c == nil || c.fetchSem == nil {
		return func() {}, nil
	}
	if err := c.fetchSem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { c.fetchSem.Release(1) }, nil
}

// PaceFetch waits until the byte-rate budget admits nbytes.
func (c *Controller) PaceFetch(ctx context.Context, nbytes int) error {
	if c == nil || c.fetchLimiter == nil {
		return nil
	}
	return c.fetchLimiter.WaitN(ctx, nbytes)
}
