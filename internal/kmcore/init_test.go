package kmcore

import (
	"math/rand"
	"testing"
)

func TestForgyPickReturnsKDistinctIds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	picks, err := ForgyPick(rng, 5, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seen := make(map[int]bool)
	for _, p := range picks {
		if seen[p] {
			t.Fatalf("duplicate pick %d in %v", p, picks)
		}
		seen[p] = true
	}
	if len(picks) != 5 {
		t.Fatalf("want 5 picks, got %d", len(picks))
	}
}

func TestForgyPickRejectsKGreaterThanN(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, err := ForgyPick(rng, 2, 3); err == nil {
		t.Fatal("expected an error when k > n")
	}
}

func TestKMeansPPSelectorDegenerateSum(t *testing.T) {
	sel := NewKMeansPPSelector(rand.New(rand.NewSource(1)))
	dist := []float64{0, 0, 0}
	_, err := sel.SelectNext(dist, 1)
	var degenerate *ErrDegenerateInit
	if err == nil {
		t.Fatal("expected degenerate init error")
	}
	if !asErrDegenerateInit(err, &degenerate) {
		t.Fatalf("expected *ErrDegenerateInit, got %T: %v", err, err)
	}
}

func asErrDegenerateInit(err error, target **ErrDegenerateInit) bool {
	e, ok := err.(*ErrDegenerateInit)
	if !ok {
		return false
	}
	*target = e
	return true
}

func TestKMeansPPSelectorPicksWithinRange(t *testing.T) {
	sel := NewKMeansPPSelector(rand.New(rand.NewSource(42)))
	dist := []float64{1, 2, 3, 4}
	for i := 0; i < 20; i++ {
		r, err := sel.SelectNext(dist, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r < 0 || r >= len(dist) {
			t.Fatalf("selection %d out of range", r)
		}
	}
}
