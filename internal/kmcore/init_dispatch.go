package kmcore

import (
	"context"
	"fmt"
	"math"
)

// initialize runs the INIT stage named by e.cfg.Init (spec §4.6) and
// leaves e.clusters holding valid initial centroids. Forgy, k-means++,
// and caller-supplied centers all leave e.pruneInit at its default true
// so the first real E-step pass is a full K-way scan (spec: "first
// pruning pass after Forgy / k-means++ / caller-supplied centers").
// Random init is the one exception — it bootstraps centroids from an
// actual assignment pass, so it clears pruneInit itself.
func (e *Engine) initialize(ctx context.Context, rs RowSource) error {
	switch e.cfg.Init {
	case InitCallerCenters:
		for c, row := range e.cfg.CallerCenters {
			e.clusters.SetMean(c, row)
		}
		return nil
	case InitRandom:
		return e.initRandom(ctx, rs)
	case InitForgy:
		return e.initForgy(ctx, rs)
	case InitKMeansPP:
		return e.initKMeansPP(ctx, rs)
	default:
		return fmt.Errorf("kmcore: unknown init mode %v", e.cfg.Init)
	}
}

// resetPrograms clears every worker's PartitionProgram so that I/O and
// changed-row counts accumulated during initialization don't leak into
// the first real iteration's M-step tallies.
func (e *Engine) resetPrograms() {
	for _, p := range e.prog {
		p.Reset()
	}
}

// initRandom implements spec §4.6's "Stage INIT, sub-phase RANDOM": every
// row is assigned to a uniformly random cluster and accumulated into its
// worker's partition Clusters; the barrier-crossing worker then merges
// and finalizes those accumulators into the job's actual initial
// centroids. Unlike Forgy/k-means++/caller-centers, this produces
// assignments and ub values directly (ub=+Inf), so the first real
// E-step proceeds straight into steady-state pruning rather than a
// forced full scan.
func (e *Engine) initRandom(ctx context.Context, rs RowSource) error {
	active := AllRows(e.cfg.N)

	handler := func(ctx context.Context, w, r int) error {
		prog := e.prog[w]
		c := RandomAssign(prog.RNG, e.cfg.K)
		row, err := e.fetchRow(ctx, rs, w, r, prog)
		if err != nil {
			return err
		}
		e.rowStates.SetAssignment(r, c)
		e.rowStates.SetUB(r, math.Inf(1))
		prog.Clusters.AddRow(c, row)
		return nil
	}

	onBarrier := func(ctx context.Context) error {
		e.clusters.Clear()
		for _, p := range e.prog {
			e.clusters.Merge(p.Clusters)
		}
		for c := 0; c < e.cfg.K; c++ {
			e.clusters.Finalize(c)
			e.clusters.SetNumMembers(c, int(e.clusters.Count(c)))
		}
		// No drift has happened yet: the bootstrap centroids are their
		// own "previous" state, with zero prev_dist.
		e.clusters.SetPrevMeans()
		for c := 0; c < e.cfg.K; c++ {
			e.clusters.SetPrevDist(c, 0)
		}
		e.resetPrograms()
		return nil
	}

	if err := e.dispatch(ctx, active, handler, onBarrier); err != nil {
		return err
	}
	e.pruneInit = false
	return nil
}

// initForgy implements spec §4.6's "Stage INIT, sub-phase FORGY": K
// preselected distinct row ids (rejection-sampled by ForgyPick, spec §9's
// Open Question resolution) are activated and each sets its centroid
// directly in the global Clusters. Concurrent SetMean calls from
// different workers are safe here because picks are pairwise distinct,
// so every write lands on a disjoint [cl*d, (cl+1)*d) slice range.
func (e *Engine) initForgy(ctx context.Context, rs RowSource) error {
	picks, err := ForgyPick(e.rng, e.cfg.N, e.cfg.K)
	if err != nil {
		return err
	}

	rowToCluster := make(map[int]int, len(picks))
	active := NewActiveSet()
	for idx, r := range picks {
		rowToCluster[r] = idx
		active.Add(r)
	}

	handler := func(ctx context.Context, w, r int) error {
		prog := e.prog[w]
		row, err := e.fetchRow(ctx, rs, w, r, prog)
		if err != nil {
			return err
		}
		e.clusters.SetMean(rowToCluster[r], row)
		return nil
	}

	if err := e.dispatch(ctx, active, handler, noopBarrier); err != nil {
		return err
	}
	e.resetPrograms()
	return nil
}

func noopBarrier(ctx context.Context) error { return nil }

// initKMeansPP implements spec §4.6's "Stage INIT, sub-phase PLUSPLUS":
// D²-weighted sampling of K centers. The first center is drawn
// uniformly; each subsequent center runs one ADDMEAN/DIST cycle over
// all rows, selecting the next center in proportion to each row's
// squared distance to its nearest already-chosen center.
func (e *Engine) initKMeansPP(ctx context.Context, rs RowSource) error {
	e.kmsppDist = make([]float64, e.cfg.N)
	for i := range e.kmsppDist {
		e.kmsppDist[i] = math.Inf(1)
	}

	first := e.rng.Intn(e.cfg.N)
	if err := e.kmsppAddMean(ctx, rs, 0, first); err != nil {
		return err
	}

	sel := NewKMeansPPSelector(e.rng)
	for idx := 1; idx < e.cfg.K; idx++ {
		if err := e.kmeansppDistPass(ctx, rs, idx-1); err != nil {
			return err
		}
		next, err := sel.SelectNext(e.kmsppDist, idx)
		if err != nil {
			return err
		}
		if err := e.kmsppAddMean(ctx, rs, idx, next); err != nil {
			return err
		}
	}
	e.resetPrograms()
	return nil
}

// kmsppAddMean implements the ADDMEAN phase: the designated row becomes
// centroid idx, is marked assigned to it with ub=0, and the distance
// matrix is recomputed so the next DIST pass can consult D(idx, ·).
// Entries involving not-yet-chosen centers are also (harmlessly)
// recomputed against the origin; DIST never reads them because it only
// consults a(r) for rows that already have an assignment.
func (e *Engine) kmsppAddMean(ctx context.Context, rs RowSource, idx, row int) error {
	if err := ctx.Err(); err != nil {
		return &CanceledError{Iteration: 0, Err: err}
	}
	data, err := rs.Fetch(ctx, row)
	if err != nil {
		return &IOError{Row: row, Err: err}
	}
	e.clusters.SetMean(idx, data)
	e.rowStates.SetAssignment(row, idx)
	e.rowStates.SetUB(row, 0)
	e.kmsppDist[row] = 0
	e.dm.Compute(e.clusters)
	return nil
}

// kmeansppDistPass implements the DIST phase for the kmsppIdx-th center:
// every row either cheaply confirms its current nearest-center distance
// still dominates (via the half-distance test) or recomputes against the
// new center, per spec §4.6.
func (e *Engine) kmeansppDistPass(ctx context.Context, rs RowSource, kmsppIdx int) error {
	active := AllRows(e.cfg.N)

	handler := func(ctx context.Context, w, r int) error {
		prog := e.prog[w]
		a := e.rowStates.Assignment(r)
		if a != Unassigned && e.kmsppDist[r] <= e.dm.Get(kmsppIdx, a) {
			return nil
		}
		row, err := e.fetchRow(ctx, rs, w, r, prog)
		if err != nil {
			return err
		}
		d := EuclDist(row, e.clusters.Mean(kmsppIdx))
		if d < e.kmsppDist[r] {
			e.kmsppDist[r] = d
			e.rowStates.SetAssignment(r, kmsppIdx)
		}
		return nil
	}

	return e.dispatch(ctx, active, handler, noopBarrier)
}
