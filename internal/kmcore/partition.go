package kmcore

import "math/rand"

// PartitionProgram is the per-worker state, created once per Engine and
// kept for the whole run: a private Clusters accumulator, a changed-row count, and an I/O-request
// count, plus a private RNG for the INIT/RANDOM sub-phase (spec §4.5's
// "RNG draws"). All per-row mutations from the engine target a worker's
// PartitionProgram, never the globals, which is what makes the E-step
// contention-free.
type PartitionProgram struct {
	Clusters *Clusters
	RNG      *rand.Rand

	changed int
	ioReqs  int
}

// NewPartitionProgram allocates a PartitionProgram with a fresh k x d
// accumulator and a private RNG seeded deterministically from seed so
// that a run's output depends only on the configured seed, not on
// goroutine scheduling order.
func NewPartitionProgram(k, d int, seed int64) *PartitionProgram {
	return &PartitionProgram{
		Clusters: NewClusters(k, d),
		RNG:      rand.New(rand.NewSource(seed)),
	}
}

// Reset clears the per-iteration diagnostic counters only. Clusters is
// deliberately left untouched: the steady-state pruned E-step only
// calls AddRow/SwapMembership for rows that change assignment (spec
// §4.6 step 5), so Clusters must persist across iterations as a running
// per-partition membership total, established in full by the prune_init
// pass's unconditional AddRow and kept correct thereafter by
// SwapMembership's balanced add/remove. Clearing it here would silently
// drop every unchanged row's contribution after one iteration.
func (p *PartitionProgram) Reset() {
	p.changed = 0
	p.ioReqs = 0
}

// IncChanged records that one row's assignment changed in this pass.
func (p *PartitionProgram) IncChanged() { p.changed++ }

// Changed returns how many rows changed assignment in this pass.
func (p *PartitionProgram) Changed() int { return p.changed }

// IncIOReq records that this worker issued one row fetch (cache miss or
// no cache) in this pass.
func (p *PartitionProgram) IncIOReq() { p.ioReqs++ }

// IOReqs returns how many row fetches this worker issued in this pass.
func (p *PartitionProgram) IOReqs() int { return p.ioReqs }
