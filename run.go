package semkmeans

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/hupe1980/semkmeans/internal/kmcore"
	"github.com/hupe1980/semkmeans/internal/resource"
)

// Run validates the configuration, wires a ResourceController around
// rowSource, and drives the engine to completion (or cancellation).
func (b Builder) Run(ctx context.Context) (*Result, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	seed := b.cfg.Seed
	if !b.hasSeed {
		seed = rand.Int63()
	}

	logger := b.cfg.Logger
	if logger == nil {
		logger = NoopLogger()
	}
	metrics := b.cfg.Metrics
	if metrics == nil {
		metrics = NoopMetricsCollector{}
	}

	workers := b.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	ctrl := resource.New(resource.Config{
		MaxInFlightFetches: b.cfg.MaxInFlightFetches,
		FetchBytesPerSec:   b.cfg.FetchBytesPerSec,
	})
	rs := &boundedRowSource{inner: b.rowSource, ctrl: ctrl}

	logger.WithRun(seed).LogRunStart(b.cfg.K, b.rowSource.Dim(), b.rowSource.Rows(), workers, b.cfg.Init)

	eng, err := kmcore.NewEngine(kmcore.EngineConfig{
		K:                        b.cfg.K,
		D:                        b.rowSource.Dim(),
		N:                        b.rowSource.Rows(),
		W:                        workers,
		MaxIters:                 b.cfg.MaxIters,
		Tolerance:                b.cfg.Tolerance,
		Variant:                  kmcore.Variant(b.cfg.Variant),
		Init:                     kmcore.InitMode(b.cfg.Init),
		CallerCenters:            b.cfg.CallerCenters,
		Seed:                     seed,
		CacheBytes:               b.cfg.CacheBytes,
		CacheUpdateStartInterval: b.cfg.CacheUpdateStartInterval,
		CacheCompress:            b.cfg.CacheCompress,
		Logger:                   logger,
		Metrics:                  metrics,
	})
	if err != nil {
		wrapped := translateError(err)
		logger.LogRunComplete(nil, wrapped)
		return nil, wrapped
	}

	kres, err := eng.Run(ctx, rs)
	if err != nil {
		wrapped := translateError(err)
		logger.LogRunComplete(nil, wrapped)
		return nil, wrapped
	}

	res := fromKmcoreResult(kres)

	if ctx.Err() != nil && !res.Converged {
		jobErr := &JobError{Result: res, Err: wrapCanceled(ctx.Err())}
		logger.LogRunComplete(res, jobErr)
		return res, jobErr
	}

	logger.LogRunComplete(res, nil)
	return res, nil
}

func wrapCanceled(err error) error {
	return &canceledWrap{err: err}
}

type canceledWrap struct{ err error }

func (c *canceledWrap) Error() string   { return "semkmeans: run canceled: " + c.err.Error() }
func (c *canceledWrap) Unwrap() []error { return []error{ErrCanceled, c.err} }

// validate checks the Builder's configuration before a run starts,
// wrapping every failure in ErrConfiguration so callers can always test
// errors.Is(err, ErrConfiguration) regardless of which specific check
// failed — the same contract translateError gives engine-detected
// configuration failures (e.g. a degenerate k-means++ dataset).
func (b Builder) validate() error {
	if b.rowSource == nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, &ErrInvalidDimension{Dimension: 0})
	}
	n := b.rowSource.Rows()
	d := b.rowSource.Dim()
	if d < 1 {
		return fmt.Errorf("%w: %w", ErrConfiguration, &ErrInvalidDimension{Dimension: d})
	}
	if b.cfg.K < 2 || b.cfg.K > n {
		return fmt.Errorf("%w: %w", ErrConfiguration, &ErrInvalidK{K: b.cfg.K, N: n})
	}
	if b.cfg.Tolerance < 0 || b.cfg.Tolerance > 1 {
		return fmt.Errorf("%w: %w", ErrConfiguration, &ErrToleranceRange{Tolerance: b.cfg.Tolerance})
	}
	if b.cfg.Init == InitCallerCenters && len(b.cfg.CallerCenters) != b.cfg.K {
		return fmt.Errorf("%w: %w", ErrConfiguration, &ErrMissingCenters{Want: b.cfg.K, Got: len(b.cfg.CallerCenters)})
	}
	return nil
}

func fromKmcoreResult(r *kmcore.Result) *Result {
	return &Result{
		Assignments: r.Assignments,
		Sizes:       r.Sizes,
		Centroids:   r.Centroids,
		Iterations:  r.Iterations,
		Converged:   r.Converged,
		IOReqs:      r.IOReqs,
		CacheHits:   r.CacheHits,
	}
}

// boundedRowSource adapts a caller's RowSource to internal/kmcore's
// RowSource, routing every Fetch through a resource.Controller so the
// engine's concurrent workers can be bounded in flight count and byte
// rate without RowSource implementations knowing anything about it.
type boundedRowSource struct {
	inner RowSource
	ctrl  *resource.Controller
}

func (b *boundedRowSource) Dim() int  { return b.inner.Dim() }
func (b *boundedRowSource) Rows() int { return b.inner.Rows() }

func (b *boundedRowSource) Fetch(ctx context.Context, r int) ([]float64, error) {
	release, err := b.ctrl.AcquireFetch(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	row, err := b.inner.Fetch(ctx, r)
	if err != nil {
		return nil, err
	}

	if err := b.ctrl.PaceFetch(ctx, len(row)*8); err != nil {
		return nil, err
	}
	return row, nil
}
