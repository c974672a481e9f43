package kmcore

import "math"

// Unassigned is the sentinel cluster id for a row that has not yet been
// assigned to any cluster.
const Unassigned = -1

// RowStates holds the per-row bookkeeping for all N rows, stored as flat
// slices indexed by row id rather than N individual structs — the same
// columnar layout the teacher's vectorstore uses for dense row data, and
// for the same reason: one row's mutation touches one owning worker and
// never needs to allocate.
//
// Lower bounds (lb) are only allocated when the full triangle variant is
// selected; the minimized variant leaves LB nil to save memory, per
// spec §3.
type RowStates struct {
	n, k int

	assign []int32
	ub     []float64
	lb     []float64 // len n*k if present, else nil
}

// NewRowStates allocates bookkeeping for n rows over k clusters.
// withLB selects the full triangle variant's per-cluster lower bounds.
func NewRowStates(n, k int, withLB bool) *RowStates {
	rs := &RowStates{
		n:      n,
		k:      k,
		assign: make([]int32, n),
		ub:     make([]float64, n),
	}
	for i := range rs.assign {
		rs.assign[i] = Unassigned
	}
	for i := range rs.ub {
		rs.ub[i] = math.Inf(1)
	}
	if withLB {
		rs.lb = make([]float64, n*k)
	}
	return rs
}

// HasLB reports whether this RowStates tracks per-cluster lower bounds
// (i.e. the full triangle variant is active).
func (rs *RowStates) HasLB() bool { return rs.lb != nil }

// Assignment returns row r's current cluster assignment, or Unassigned.
func (rs *RowStates) Assignment(r int) int { return int(rs.assign[r]) }

// SetAssignment sets row r's cluster assignment.
func (rs *RowStates) SetAssignment(r, cl int) { rs.assign[r] = int32(cl) }

// UB returns row r's upper bound on its distance to its assigned
// centroid.
func (rs *RowStates) UB(r int) float64 { return rs.ub[r] }

// SetUB sets row r's upper bound.
func (rs *RowStates) SetUB(r int, v float64) { rs.ub[r] = v }

// LB returns row r's lower bound on its distance to cluster cl. Only
// valid when HasLB reports true.
func (rs *RowStates) LB(r, cl int) float64 { return rs.lb[r*rs.k+cl] }

// SetLB sets row r's lower bound on its distance to cluster cl.
func (rs *RowStates) SetLB(r, cl int, v float64) { rs.lb[r*rs.k+cl] = v }

// LoosenLB relaxes every lb(r,c) by the corresponding cluster's drift,
// lb(r,c) <- max(0, lb(r,c) - prevDist[c]). Must run for every c before
// any lb test is evaluated for r in the current E-step pass (spec §9
// Open Question resolution).
func (rs *RowStates) LoosenLB(r int, clusters *Clusters) {
	if rs.lb == nil {
		return
	}
	base := r * rs.k
	for cl := 0; cl < rs.k; cl++ {
		v := rs.lb[base+cl] - clusters.PrevDist(cl)
		if v < 0 {
			v = 0
		}
		rs.lb[base+cl] = v
	}
}

// Assignments copies out every row's final cluster assignment.
func (rs *RowStates) Assignments() []int {
	out := make([]int, rs.n)
	for i, a := range rs.assign {
		out[i] = int(a)
	}
	return out
}
