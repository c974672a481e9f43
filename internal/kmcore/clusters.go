package kmcore

import "math"

// Clusters holds the current and previous centroid matrices plus the
// per-cluster accumulator used during the M-step reduction.
//
// Single-writer contract: a Clusters value is either a partition-local
// accumulator (written only by the worker that owns it) or the global
// instance (written only by the barrier-crossing worker during the
// M-step). Concurrent readers are never mixed with concurrent writers.
type Clusters struct {
	k, d int

	// means[c*d : (c+1)*d] is cluster c's current centroid.
	means []float64
	// prevMeans is the shadow copy captured by SetPrevMeans.
	prevMeans []float64

	// sum/count are the M-step accumulator; cleared by Clear.
	sum   []float64
	count []int64

	numMembers []int
	prevDist   []float64
}

// NewClusters allocates a k-cluster, d-dimensional Clusters value with
// all centroids at the origin.
func NewClusters(k, d int) *Clusters {
	return &Clusters{
		k:          k,
		d:          d,
		means:      make([]float64, k*d),
		prevMeans:  make([]float64, k*d),
		sum:        make([]float64, k*d),
		count:      make([]int64, k),
		numMembers: make([]int, k),
		prevDist:   make([]float64, k),
	}
}

// K returns the number of clusters.
func (c *Clusters) K() int { return c.k }

// D returns the row dimensionality.
func (c *Clusters) D() int { return c.d }

// Mean returns cluster c's current centroid. The returned slice aliases
// internal storage and must be treated as read-only by callers outside
// this package.
func (c *Clusters) Mean(cl int) []float64 {
	return c.means[cl*c.d : (cl+1)*c.d]
}

// SetMean overwrites cluster cl's centroid directly (used by Forgy init
// and caller-supplied centers).
func (c *Clusters) SetMean(cl int, row []float64) {
	copy(c.means[cl*c.d:(cl+1)*c.d], row)
}

// AddRow accumulates row into cluster c's partial sum and increments its
// member count. Partition-local only.
func (c *Clusters) AddRow(cl int, row []float64) {
	base := cl * c.d
	for i, v := range row {
		c.sum[base+i] += v
	}
	c.count[cl]++
}

// RemoveRow subtracts row from cluster c's partial sum and decrements its
// member count.
func (c *Clusters) RemoveRow(cl int, row []float64) {
	base := cl * c.d
	for i, v := range row {
		c.sum[base+i] -= v
	}
	c.count[cl]--
}

// SwapMembership moves row from cluster from to cluster to in one step.
func (c *Clusters) SwapMembership(from, to int, row []float64) {
	c.RemoveRow(from, row)
	c.AddRow(to, row)
}

// Finalize divides cluster c's accumulated sum by its member count,
// writing the result into means[c]. An empty cluster (count==0) retains
// its previous mean rather than dividing by zero. Idempotent within one
// call (calling twice without an intervening Clear is a no-op the second
// time since sum/count are unaffected by Finalize).
func (c *Clusters) Finalize(cl int) {
	n := c.count[cl]
	base := cl * c.d
	if n == 0 {
		return
	}
	fn := float64(n)
	for i := 0; i < c.d; i++ {
		c.means[base+i] = c.sum[base+i] / fn
	}
}

// Clear zeros every accumulator and member count, preserving the
// previous-means shadow and the current means.
func (c *Clusters) Clear() {
	for i := range c.sum {
		c.sum[i] = 0
	}
	for i := range c.count {
		c.count[i] = 0
	}
}

// SetPrevMeans copies the current means into the previous-means shadow.
func (c *Clusters) SetPrevMeans() {
	copy(c.prevMeans, c.means)
}

// Merge adds other's partial sums and counts into c. Used by the M-step
// reduction over per-partition accumulators; c must be the global
// instance and other a drained partition-local accumulator.
func (c *Clusters) Merge(other *Clusters) {
	for i := range c.sum {
		c.sum[i] += other.sum[i]
	}
	for i := range c.count {
		c.count[i] += other.count[i]
	}
}

// SetNumMembers records cluster cl's final member count for the just-
// completed iteration (called after Finalize, once Merge has drained all
// partitions).
func (c *Clusters) SetNumMembers(cl int, n int) { c.numMembers[cl] = n }

// NumMembers returns cluster cl's member count as of the last M-step.
func (c *Clusters) NumMembers(cl int) int { return c.numMembers[cl] }

// Count returns cluster cl's accumulator member count (pre-Finalize).
func (c *Clusters) Count(cl int) int64 { return c.count[cl] }

// SetPrevDist records how far cluster cl moved in the last M-step.
func (c *Clusters) SetPrevDist(cl int, dist float64) { c.prevDist[cl] = dist }

// PrevDist returns cluster cl's drift from the last M-step.
func (c *Clusters) PrevDist(cl int) float64 { return c.prevDist[cl] }

// RecomputePrevDist sets prev_dist[cl] to the Euclidean distance between
// the current and previous mean of cl. Called once per cluster at the
// end of the M-step, after Finalize.
func (c *Clusters) RecomputePrevDist(cl int) {
	base := cl * c.d
	var sum float64
	for i := 0; i < c.d; i++ {
		diff := c.means[base+i] - c.prevMeans[base+i]
		sum += diff * diff
	}
	c.prevDist[cl] = math.Sqrt(sum)
}

// Snapshot copies every centroid into a freshly-allocated [][]float64,
// safe to hand to a caller after the engine has stopped mutating c.
func (c *Clusters) Snapshot() [][]float64 {
	out := make([][]float64, c.k)
	for cl := 0; cl < c.k; cl++ {
		row := make([]float64, c.d)
		copy(row, c.Mean(cl))
		out[cl] = row
	}
	return out
}
