package kmcore

import "testing"

func TestRowCacheFillFreezeAndRead(t *testing.T) {
	c := NewRowCache(2, 3, 8, false) // fillCap = 8/(2*2) = 2 per shard
	if c == nil {
		t.Fatal("expected non-nil cache")
	}

	row0 := []float64{1, 2, 3}
	if !c.TryInsert(0, 100, row0) {
		t.Fatal("first insert into shard 0 should succeed")
	}
	if !c.TryInsert(0, 101, []float64{4, 5, 6}) {
		t.Fatal("second insert into shard 0 should succeed (at cap)")
	}
	if c.TryInsert(0, 102, []float64{7, 8, 9}) {
		t.Fatal("third insert into a full shard should be refused")
	}

	got, ok := c.Get(0, 100)
	if !ok || got[0] != 1 {
		t.Fatalf("expected row 100 cached, got %v ok=%v", got, ok)
	}

	// Reads cross shard boundaries: row 100 was inserted by worker 0 but
	// is still found when queried via worker 1's hint.
	got, ok = c.Get(1, 100)
	if !ok || got[0] != 1 {
		t.Fatalf("expected cross-shard read to find row 100, got %v ok=%v", got, ok)
	}

	c.BuildIndex()
	if c.TryInsert(0, 200, []float64{0, 0, 0}) {
		t.Fatal("insert into a frozen shard should be refused")
	}
}

func TestRowCacheCompressedRoundTrip(t *testing.T) {
	c := NewRowCache(1, 4, 4, true)
	row := []float64{1.5, -2.25, 3.0, 0}
	if !c.TryInsert(0, 7, row) {
		t.Fatal("insert should succeed")
	}
	got, ok := c.Get(0, 7)
	if !ok {
		t.Fatal("expected hit")
	}
	for i := range row {
		if got[i] != row[i] {
			t.Fatalf("round trip mismatch at %d: want %v got %v", i, row[i], got[i])
		}
	}
}

// TestRowCacheRegenerationSchedule exercises spec §4.3's regeneration
// schedule: U starts at 5, doubles on the first regeneration, then
// grows by the elapsed fetch-count on each subsequent one — producing
// regenerations at io_iter-equivalent checkpoints 5, 15, 35, ...
func TestRowCacheRegenerationSchedule(t *testing.T) {
	c := NewRowCache(1, 2, 2, false)
	c.SetUpdateInterval(5)

	var regenAt []int
	for i := 1; i <= 40; i++ {
		if c.OnIterationEnd(true) {
			regenAt = append(regenAt, i)
		}
	}

	want := []int{5, 15, 35}
	if len(regenAt) < len(want) {
		t.Fatalf("expected at least %v regenerations, got %v", want, regenAt)
	}
	for i, w := range want {
		if regenAt[i] != w {
			t.Fatalf("regeneration %d: want iteration %d, got %d (full sequence %v)", i, w, regenAt[i], regenAt)
		}
	}
}

func TestRowCacheNoFetchDoesNotAdvanceSchedule(t *testing.T) {
	c := NewRowCache(1, 2, 2, false)
	c.SetUpdateInterval(3)

	for i := 0; i < 10; i++ {
		if c.OnIterationEnd(false) {
			t.Fatal("an iteration with no fetch must never trigger regeneration")
		}
	}
	if c.IOIter() != 0 {
		t.Fatalf("io_iter must stay 0 when no iteration fetched, got %d", c.IOIter())
	}
}

func TestRowCacheNilIsInert(t *testing.T) {
	var c *RowCache
	if c.TryInsert(0, 0, []float64{1}) {
		t.Fatal("nil cache must refuse inserts")
	}
	if _, ok := c.Get(0, 0); ok {
		t.Fatal("nil cache must never hit")
	}
	if c.OnIterationEnd(true) {
		t.Fatal("nil cache must never regenerate")
	}
	c.BuildIndex() // must not panic
}
