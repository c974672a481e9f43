package semkmeans

// This file implements the fluent builder API for configuring and
// running a clustering job. The builder is immutable — each method
// returns a new builder with the updated configuration, the same
// pattern as the teacher's HNSWBuilder[T] (builder.go), minus the
// generic type parameter: semkmeans has no per-vector payload type to
// parameterize over.

// New creates a Builder over rowSource targeting k clusters, with the
// teacher's usual defaults: k-means++ init, 100 max iterations, zero
// tolerance (run to a fixed point), one worker, and no row cache
// (CacheBytes=0 disables the cache).
//
// Example:
//
//	res, err := semkmeans.New(rowSource, 8).
//	    Init(semkmeans.InitKMeansPP).
//	    MaxIters(100).
//	    Workers(8).
//	    CacheBytes(256 << 20).
//	    Seed(42).
//	    Run(ctx)
func New(rowSource RowSource, k int) Builder {
	return Builder{
		rowSource: rowSource,
		cfg: Config{
			K:                        k,
			MaxIters:                 100,
			Tolerance:                0,
			Init:                     InitKMeansPP,
			Variant:                  VariantMinimized,
			Workers:                  1,
			CacheUpdateStartInterval: 5,
		},
	}
}

// Builder is an immutable fluent builder for configuring and running a
// clustering job. Each method returns a new builder with the updated
// configuration.
type Builder struct {
	rowSource RowSource
	cfg       Config
	hasSeed   bool
}

// Init selects the centroid initialization mode.
func (b Builder) Init(m InitMode) Builder {
	b.cfg.Init = m
	return b
}

// CallerCenters supplies K initial centroids directly and implies
// Init(InitCallerCenters).
func (b Builder) CallerCenters(centers [][]float64) Builder {
	b.cfg.Init = InitCallerCenters
	b.cfg.CallerCenters = centers
	return b
}

// MaxIters caps the number of E-step/M-step iterations.
func (b Builder) MaxIters(n int) Builder {
	b.cfg.MaxIters = n
	return b
}

// Tolerance sets the fraction of rows allowed to change cluster
// between iterations before the run is considered converged.
func (b Builder) Tolerance(t float64) Builder {
	b.cfg.Tolerance = t
	return b
}

// Variant selects the minimized or full triangle-inequality variant.
func (b Builder) Variant(v Variant) Builder {
	b.cfg.Variant = v
	return b
}

// Workers sets the number of partitions (goroutines) the E-step fans
// out across. Default: 1.
func (b Builder) Workers(w int) Builder {
	b.cfg.Workers = w
	return b
}

// Seed sets the RNG seed for deterministic init and worker streams. If
// never called, Run picks a seed at random.
func (b Builder) Seed(seed int64) Builder {
	b.cfg.Seed = seed
	b.hasSeed = true
	return b
}

// CacheBytes sets the row cache's approximate memory budget in bytes.
// 0 disables the cache.
func (b Builder) CacheBytes(n int) Builder {
	b.cfg.CacheBytes = n
	return b
}

// CacheUpdateStartInterval sets the initial regeneration interval U0
// for the row cache's geometric-then-linear schedule. Default: 5.
func (b Builder) CacheUpdateStartInterval(n int) Builder {
	b.cfg.CacheUpdateStartInterval = n
	return b
}

// CacheCompress enables LZ4 block compression of cached rows, trading
// CPU for effective cache capacity.
func (b Builder) CacheCompress(enabled bool) Builder {
	b.cfg.CacheCompress = enabled
	return b
}

// MaxInFlightFetches bounds the number of concurrent RowSource.Fetch
// calls across all workers. 0 means unlimited.
func (b Builder) MaxInFlightFetches(n int64) Builder {
	b.cfg.MaxInFlightFetches = n
	return b
}

// FetchBytesPerSec paces fetched row bytes, emulating a page-I/O
// budget. 0 means unlimited.
func (b Builder) FetchBytesPerSec(n int64) Builder {
	b.cfg.FetchBytesPerSec = n
	return b
}

// Logger sets the structured logger for run tracing.
func (b Builder) Logger(l *Logger) Builder {
	b.cfg.Logger = l
	return b
}

// Metrics sets the metrics collector for monitoring.
func (b Builder) Metrics(m MetricsCollector) Builder {
	b.cfg.Metrics = m
	return b
}
