package kmcore

import "github.com/RoaringBitmap/roaring/v2"

// ActiveSet is the set of row ids activated for the engine's next pass
// (spec §4.7 item (i)). Engine.dispatch consults it to pick the rows of
// each pass; it is internal to the engine and not part of the RowSource
// interface. Backed by a roaring bitmap: the sets this engine
// activates are either "every row" (steady-state E-step, prune_init) or
// a handful of ids (Forgy centers, one k-means++ candidate), both of
// which a roaring bitmap represents far more cheaply than a map[int]bool
// once N is large.
type ActiveSet struct {
	bm *roaring.Bitmap
}

// NewActiveSet returns an empty ActiveSet.
func NewActiveSet() *ActiveSet {
	return &ActiveSet{bm: roaring.New()}
}

// AllRows returns an ActiveSet containing every row id in [0, n).
func AllRows(n int) *ActiveSet {
	a := NewActiveSet()
	a.bm.AddRange(0, uint64(n))
	return a
}

// Add activates row id r.
func (a *ActiveSet) Add(r int) { a.bm.Add(uint32(r)) }

// Contains reports whether r is active.
func (a *ActiveSet) Contains(r int) bool { return a.bm.Contains(uint32(r)) }

// Len returns the number of active rows.
func (a *ActiveSet) Len() int { return int(a.bm.GetCardinality()) }

// ForEach calls fn once per active row id in ascending order.
func (a *ActiveSet) ForEach(fn func(r int)) {
	it := a.bm.Iterator()
	for it.HasNext() {
		fn(int(it.Next()))
	}
}

// Clear empties the set in place, for reuse across iterations.
func (a *ActiveSet) Clear() { a.bm.Clear() }
