package kmcore

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
)

// Variant selects which PartitionProgram/RowState monomorphization is
// active — the minimized variant omits per-cluster lower bounds to
// save memory, the full variant tracks them for tighter pruning
// (spec §9, "Per-partition accumulators as a class hierarchy").
type Variant int

const (
	MinimizedVariant Variant = iota
	FullVariant
)

// EngineConfig holds the validated parameters for one clustering run.
// EngineConfig.validate, run by NewEngine, rejects a K below 2, a D
// below 1, N below K, W below 1, a tolerance outside [0,1], an unknown
// init mode, and a caller_centers init without exactly K centers, so a
// malformed config fails in NewEngine rather than deep in dispatch.
type EngineConfig struct {
	K, D, N, W               int
	MaxIters                 int
	Tolerance                float64
	Variant                  Variant
	Init                     InitMode
	CallerCenters            [][]float64
	Seed                     int64
	CacheBytes               int
	CacheUpdateStartInterval int
	CacheCompress            bool
	Logger                   Logger
	Metrics                  MetricsCollector

	// DisablePruning forces every iteration to run the unpruned full
	// K-way scan (prune_init=true on every pass, never just the first).
	// It exists for spec §8 property test 4 ("pruning does not change
	// the result") — comparing a pruned run against a DisablePruning
	// run on the same seed/init must produce identical assignments. Not
	// exposed through the public Builder; internal/test use only.
	DisablePruning bool
}

func (cfg EngineConfig) validate() error {
	if cfg.K < 2 {
		return fmt.Errorf("kmcore: K must be >= 2, got %d", cfg.K)
	}
	if cfg.D < 1 {
		return fmt.Errorf("kmcore: D must be >= 1, got %d", cfg.D)
	}
	if cfg.N < cfg.K {
		return fmt.Errorf("kmcore: N must be >= K, got N=%d K=%d", cfg.N, cfg.K)
	}
	if cfg.W < 1 {
		return fmt.Errorf("kmcore: W must be >= 1, got %d", cfg.W)
	}
	if cfg.Tolerance < 0 || cfg.Tolerance > 1 {
		return fmt.Errorf("kmcore: Tolerance must be in [0,1], got %v", cfg.Tolerance)
	}
	switch cfg.Init {
	case InitRandom, InitForgy, InitKMeansPP, InitCallerCenters:
	default:
		return fmt.Errorf("kmcore: unknown init mode %v", cfg.Init)
	}
	if cfg.Init == InitCallerCenters && len(cfg.CallerCenters) != cfg.K {
		return fmt.Errorf("kmcore: caller_centers init needs exactly K=%d centers, got %d", cfg.K, len(cfg.CallerCenters))
	}
	return nil
}

// Result is the outcome of one clustering run (spec §6).
type Result struct {
	Assignments []int
	Sizes       []int
	Centroids   [][]float64
	Iterations  int
	Converged   bool
	IOReqs      uint64
	CacheHits   uint64
}

// Engine implements the pruning k-means E-step/M-step state machine
// (spec §4.6) over rows supplied by a RowSource.
type Engine struct {
	cfg EngineConfig

	clusters  *Clusters
	dm        *DistMatrix
	rowStates *RowStates
	prog      []*PartitionProgram
	cache     *RowCache
	barrier   *Barrier
	rng       *rand.Rand

	kmsppDist []float64

	iter          int
	pruneInit     bool
	globalChanged int
	totalIOReqs   uint64

	logger  Logger
	metrics MetricsCollector
}

// NewEngine allocates an Engine and its bookkeeping for cfg.N rows.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = NopLogger
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NopMetrics
	}

	prog := make([]*PartitionProgram, cfg.W)
	for w := range prog {
		// Distinct, deterministic per-worker seeds: offset by a large
		// odd stride so adjacent job seeds don't alias adjacent worker
		// streams.
		prog[w] = NewPartitionProgram(cfg.K, cfg.D, cfg.Seed+1+int64(w)*104729)
	}

	e := &Engine{
		cfg:       cfg,
		clusters:  NewClusters(cfg.K, cfg.D),
		dm:        NewDistMatrix(cfg.K),
		rowStates: NewRowStates(cfg.N, cfg.K, cfg.Variant == FullVariant),
		prog:      prog,
		cache:     NewRowCache(cfg.W, cfg.D, cfg.CacheBytes/(8*cfg.D+1), cfg.CacheCompress),
		barrier:   NewBarrier(cfg.W),
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		pruneInit: true,
		logger:    logger,
		metrics:   metrics,
	}
	if e.cache != nil && cfg.CacheUpdateStartInterval > 0 {
		e.cache.SetUpdateInterval(cfg.CacheUpdateStartInterval)
	}
	return e, nil
}

func (e *Engine) workerRange(w int) (start, end int) {
	chunk := (e.cfg.N + e.cfg.W - 1) / e.cfg.W
	start = w * chunk
	end = start + chunk
	if start > e.cfg.N {
		start = e.cfg.N
	}
	if end > e.cfg.N {
		end = e.cfg.N
	}
	return start, end
}

// fetchRow returns row r's data, preferring the cache, falling back to
// rs.Fetch on a miss. A fresh fetch is inserted into worker's shard and
// counted against prog's I/O counter, which mstepReducer sums across
// every partition to decide whether this iteration touched the cache at
// all.
func (e *Engine) fetchRow(ctx context.Context, rs RowSource, worker, r int, prog *PartitionProgram) ([]float64, error) {
	if row, ok := e.cache.Get(worker, r); ok {
		return row, nil
	}
	row, err := rs.Fetch(ctx, r)
	if err != nil {
		return nil, &IOError{Row: r, Err: err}
	}
	prog.IncIOReq()
	e.cache.TryInsert(worker, r, row)
	return row, nil
}

// rowHandler processes one active row for worker w using that worker's
// PartitionProgram. Returning a non-nil error aborts the whole
// dispatch wave without running onBarrier (spec §7: no partial M-step).
type rowHandler func(ctx context.Context, w int, r int) error

// dispatch fans active's rows out across e.cfg.W static partitions,
// each handled by its own goroutine, then has exactly one winning
// goroutine (as decided by e.barrier) run onBarrier once all rows have
// drained — the Barrier.Ping contract described in spec §4.4.
func (e *Engine) dispatch(ctx context.Context, active *ActiveSet, handler rowHandler, onBarrier func(ctx context.Context) error) error {
	errs := make([]error, e.cfg.W)
	done := make(chan struct{}, e.cfg.W)

	for w := 0; w < e.cfg.W; w++ {
		go func(w int) {
			defer func() { done <- struct{}{} }()

			start, end := e.workerRange(w)
			for r := start; r < end; r++ {
				if !active.Contains(r) {
					continue
				}
				if err := ctx.Err(); err != nil {
					errs[w] = &CanceledError{Iteration: e.iter, Err: err}
					return
				}
				if err := handler(ctx, w, r); err != nil {
					errs[w] = err
					return
				}
			}

			if e.barrier.Ping() {
				if err := ctx.Err(); err != nil {
					errs[w] = &CanceledError{Iteration: e.iter, Err: err}
					return
				}
				if err := onBarrier(ctx); err != nil {
					errs[w] = err
				}
			}
		}(w)
	}

	for i := 0; i < e.cfg.W; i++ {
		<-done
	}

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Run drives initialization and the E-step/M-step loop to completion
// (or cancellation) and returns the final result.
func (e *Engine) Run(ctx context.Context, rs RowSource) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ie, ok := r.(*InvariantError); ok {
				err = ie
				return
			}
			panic(r)
		}
	}()

	if err := e.initialize(ctx, rs); err != nil {
		var degenerate *ErrDegenerateInit
		if errors.As(err, &degenerate) {
			return nil, err
		}
		var canceled *CanceledError
		if errors.As(err, &canceled) {
			return e.snapshot(0, false), nil
		}
		return nil, err
	}

	e.dm.Compute(e.clusters)

	// The original (min_triangle_sem_kmeans.cpp's start_all gate) only
	// runs the E-step/M-step loop at all when max_iters > 0; with
	// max_iters == 0 the caller-supplied (or just-initialized) centroids
	// are returned untouched, alongside one argmin assignment pass so
	// Assignments/Sizes are still meaningful (spec §8 property test 7).
	if e.cfg.MaxIters <= 0 {
		return e.runZeroIters(ctx, rs)
	}

	for {
		active := AllRows(e.cfg.N)

		// A full K-way scan (rather than steady-state pruning) runs on
		// the first pass after Forgy/k-means++/caller-centers init, and
		// on every pass when DisablePruning forces the unpruned
		// reference variant (spec §8 property test 4). Either way, the
		// full scan unconditionally re-adds every row, so the
		// persistent partition accumulators must start this pass empty
		// or rows already counted from a previous pass would be
		// double-counted.
		fullScan := e.pruneInit || e.cfg.DisablePruning
		if fullScan {
			for _, p := range e.prog {
				p.Clusters.Clear()
			}
		}

		err := e.dispatch(ctx, active, e.estepHandler(rs, fullScan), e.mstepReducer)
		if err != nil {
			var canceled *CanceledError
			if errors.As(err, &canceled) {
				return e.snapshot(e.iter, false), nil
			}
			return nil, err
		}

		if e.pruneInit {
			e.pruneInit = false
		}

		converged := e.globalChanged == 0 ||
			float64(e.globalChanged)/float64(e.cfg.N) <= e.cfg.Tolerance ||
			e.iter > e.cfg.MaxIters

		e.metrics.IncCounter("kmeans.iterations", 1)
		e.logger.Debug("iteration complete", "iter", e.iter, "changed", e.globalChanged)

		if converged {
			return e.snapshot(e.iter, true), nil
		}

		e.globalChanged = 0
		e.iter++
	}
}

// runZeroIters handles EngineConfig.MaxIters <= 0: it performs a single
// full-scan argmin assignment pass so Assignments/Sizes reflect the
// supplied centroids, merges partition member counts for Sizes, but
// never calls Finalize — the centroids themselves are returned exactly
// as initialize left them.
func (e *Engine) runZeroIters(ctx context.Context, rs RowSource) (*Result, error) {
	active := AllRows(e.cfg.N)
	for _, p := range e.prog {
		p.Clusters.Clear()
	}

	handler := e.estepHandler(rs, true)
	onBarrier := func(ctx context.Context) error {
		e.clusters.Clear()
		ioReqs := 0
		for _, p := range e.prog {
			e.clusters.Merge(p.Clusters)
			ioReqs += p.IOReqs()
			p.Reset()
		}
		for c := 0; c < e.cfg.K; c++ {
			e.clusters.SetNumMembers(c, int(e.clusters.Count(c)))
		}
		e.totalIOReqs += uint64(ioReqs)
		return nil
	}

	if err := e.dispatch(ctx, active, handler, onBarrier); err != nil {
		var canceled *CanceledError
		if errors.As(err, &canceled) {
			return e.snapshot(0, false), nil
		}
		return nil, err
	}
	return e.snapshot(0, true), nil
}

func (e *Engine) snapshot(iters int, converged bool) *Result {
	sizes := make([]int, e.cfg.K)
	for c := 0; c < e.cfg.K; c++ {
		sizes[c] = e.clusters.NumMembers(c)
	}
	var cacheHits uint64
	if e.cache != nil {
		cacheHits = e.cache.Hits()
	}
	return &Result{
		Assignments: e.rowStates.Assignments(),
		Sizes:       sizes,
		Centroids:   e.clusters.Snapshot(),
		Iterations:  iters,
		Converged:   converged,
		IOReqs:      e.totalIOReqs,
		CacheHits:   cacheHits,
	}
}

// estepHandler returns the per-row dispatch function for the steady
// ESTEP stage (spec §4.6's "Stage ESTEP" branches, prune_init=true and
// false).
func (e *Engine) estepHandler(rs RowSource, fullScan bool) rowHandler {
	return func(ctx context.Context, w int, r int) error {
		prog := e.prog[w]

		if fullScan {
			return e.estepFullScan(ctx, rs, w, r, prog)
		}
		return e.estepPruned(ctx, rs, w, r, prog)
	}
}

func (e *Engine) estepFullScan(ctx context.Context, rs RowSource, w, r int, prog *PartitionProgram) error {
	row, err := e.fetchRow(ctx, rs, w, r, prog)
	if err != nil {
		return err
	}

	best := 0
	bestDist := EuclDist(row, e.clusters.Mean(0))
	for c := 1; c < e.cfg.K; c++ {
		d := EuclDist(row, e.clusters.Mean(c))
		if d < bestDist {
			bestDist = d
			best = c
		}
	}

	old := e.rowStates.Assignment(r)
	e.rowStates.SetAssignment(r, best)
	e.rowStates.SetUB(r, bestDist)
	if e.rowStates.HasLB() {
		e.rowStates.SetLB(r, best, bestDist)
	}
	prog.Clusters.AddRow(best, row)
	if old != best {
		prog.IncChanged()
	}
	return nil
}

func (e *Engine) estepPruned(ctx context.Context, rs RowSource, w, r int, prog *PartitionProgram) error {
	a := e.rowStates.Assignment(r)

	// Step 1: tighten ub via the drift bound, loosen lb (must precede
	// any lb test this pass, per spec §9's Open Question resolution).
	e.rowStates.SetUB(r, e.rowStates.UB(r)+e.clusters.PrevDist(a))
	e.rowStates.LoosenLB(r, e.clusters)

	// Step 2: lemma-1 skip.
	if e.rowStates.UB(r) <= e.dm.MinHalfDist(a) {
		return nil
	}

	row, err := e.fetchRow(ctx, rs, w, r, prog)
	if err != nil {
		return err
	}

	recalculated := false
	oldAssignment := a
	cur := a // current best, mutated in place as closer centers are found

	for c := 0; c < e.cfg.K; c++ {
		if c == cur {
			continue
		}

		// (3a) — D(cur,c) is always checked against the *current* best,
		// which may already have moved within this very scan.
		if e.rowStates.UB(r) <= e.dm.Get(cur, c) {
			continue
		}
		// (3b, full variant only)
		if e.rowStates.HasLB() && e.rowStates.UB(r) <= e.rowStates.LB(r, c) {
			continue
		}

		if !recalculated {
			dExact := EuclDist(row, e.clusters.Mean(cur))
			e.rowStates.SetUB(r, dExact)
			if e.rowStates.HasLB() {
				e.rowStates.SetLB(r, cur, dExact)
			}
			recalculated = true

			// (3c) re-check now that ub is exact.
			if e.rowStates.UB(r) <= e.dm.Get(cur, c) {
				continue
			}
		}

		// (4, full variant)
		if e.rowStates.HasLB() && e.rowStates.LB(r, c) >= e.rowStates.UB(r) {
			continue
		}

		dc := EuclDist(row, e.clusters.Mean(c))
		if e.rowStates.HasLB() {
			e.rowStates.SetLB(r, c, dc)
		}
		if dc < e.rowStates.UB(r) {
			e.rowStates.SetUB(r, dc)
			cur = c
		}
	}

	if cur != oldAssignment {
		e.rowStates.SetAssignment(r, cur)
		prog.Clusters.SwapMembership(oldAssignment, cur, row)
		prog.IncChanged()
	}
	return nil
}

// mstepReducer implements spec §4.6's M-step, run once per iteration by
// the single worker that wins the barrier.
func (e *Engine) mstepReducer(ctx context.Context) error {
	e.clusters.SetPrevMeans()
	e.clusters.Clear()

	globalChanged := 0
	ioReqs := 0
	totalMembers := int64(0)
	for _, p := range e.prog {
		e.clusters.Merge(p.Clusters)
		globalChanged += p.Changed()
		ioReqs += p.IOReqs()
		p.Reset()
	}
	e.globalChanged = globalChanged
	e.totalIOReqs += uint64(ioReqs)

	for c := 0; c < e.cfg.K; c++ {
		totalMembers += e.clusters.Count(c)
	}
	if totalMembers != int64(e.cfg.N) {
		panic(invariantf("cluster member total %d != N %d after merge", totalMembers, e.cfg.N))
	}

	for c := 0; c < e.cfg.K; c++ {
		e.clusters.Finalize(c)
		e.clusters.SetNumMembers(c, int(e.clusters.Count(c)))
		e.clusters.RecomputePrevDist(c)
	}

	e.dm.Compute(e.clusters)

	if e.cache != nil {
		e.cache.OnIterationEnd(ioReqs > 0)
		e.metrics.ObserveValue("kmeans.cache_hits", float64(e.cache.Hits()))
	}

	e.metrics.IncCounter("kmeans.io_requests", int64(ioReqs))
	return nil
}
