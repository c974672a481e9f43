package kmcore

import (
	"fmt"
	"math/rand"
)

// InitMode selects how the initial K centroids are produced.
type InitMode int

const (
	InitRandom InitMode = iota
	InitForgy
	InitKMeansPP
	InitCallerCenters
)

func (m InitMode) String() string {
	switch m {
	case InitRandom:
		return "random"
	case InitForgy:
		return "forgy"
	case InitKMeansPP:
		return "kmeanspp"
	case InitCallerCenters:
		return "caller_centers"
	default:
		return "unknown"
	}
}

// ErrDegenerateInit reports that k-means++ selection could not find a
// next center because every remaining row has zero D² distance to the
// already-chosen centers (spec §7, §8 S3).
type ErrDegenerateInit struct {
	Pick int // which center selection (0-indexed) failed
}

func (e *ErrDegenerateInit) Error() string {
	return fmt.Sprintf("kmeanspp: degenerate dataset, cumulative D^2 sum is zero selecting center %d", e.Pick)
}

// ForgyPick rejection-samples K distinct row ids in [0,n) using rng, per
// spec §9's Open Question resolution (the source silently deduplicates
// via map insertion, which can yield fewer than K centers; this
// rejection-samples until K distinct ids are found).
func ForgyPick(rng *rand.Rand, n, k int) ([]int, error) {
	if k > n {
		return nil, fmt.Errorf("kmcore: forgy init needs n >= k, got n=%d k=%d", n, k)
	}
	seen := make(map[int]bool, k)
	picks := make([]int, 0, k)
	for len(picks) < k {
		r := rng.Intn(n)
		if seen[r] {
			continue
		}
		seen[r] = true
		picks = append(picks, r)
	}
	return picks, nil
}

// KMeansPPSelector drives the D²-weighted next-center draw described in
// spec §4.6's PLUSPLUS/DIST phase. It holds no row data itself — the
// engine supplies the per-row distances it collected while dispatching
// the DIST phase over all rows.
type KMeansPPSelector struct {
	rng *rand.Rand
}

// NewKMeansPPSelector returns a selector drawing from rng.
func NewKMeansPPSelector(rng *rand.Rand) *KMeansPPSelector {
	return &KMeansPPSelector{rng: rng}
}

// SelectNext performs the standard D²-weighted sampling: draw u in
// [0,1), let T = S*u where S is the sum of every row's kmspp distance,
// then scan rows in id order subtracting kmsppDist[r] from T until
// T <= 0, returning the first such row. dist must be indexed by row id
// in ascending order.
//
// Returns an error satisfying errors.As(*ErrDegenerateInit) when the
// cumulative sum is zero (every candidate already coincides with a
// chosen center).
func (s *KMeansPPSelector) SelectNext(dist []float64, pick int) (int, error) {
	total := 0.0
	for _, d := range dist {
		total += d
	}
	if total <= 0 {
		return -1, &ErrDegenerateInit{Pick: pick}
	}

	u := s.rng.Float64()
	t := total * u
	for r, d := range dist {
		t -= d
		if t <= 0 {
			return r, nil
		}
	}
	// Floating point slop: fall back to the last row rather than fail a
	// selection that was numerically valid.
	return len(dist) - 1, nil
}

// RandomAssign returns a uniformly random cluster id in [0,k) for the
// INIT/RANDOM sub-phase.
func RandomAssign(rng *rand.Rand, k int) int {
	return rng.Intn(k)
}
