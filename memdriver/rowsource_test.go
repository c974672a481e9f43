package memdriver

import (
	"context"
	"testing"
)

func TestMatrixRowSourceFetch(t *testing.T) {
	data := []float64{0, 0, 1, 1, 2, 2}
	rs, err := New(data, 3, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	row, err := rs.Fetch(context.Background(), 1)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if row[0] != 1 || row[1] != 1 {
		t.Fatalf("row 1 = %v, want [1 1]", row)
	}
}

func TestMatrixRowSourceRejectsMismatchedShape(t *testing.T) {
	if _, err := New([]float64{1, 2, 3}, 2, 2); err == nil {
		t.Fatal("expected an error for data not matching rows*dim")
	}
}

func TestMatrixRowSourceFetchOutOfRange(t *testing.T) {
	rs, err := New([]float64{0, 0}, 1, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := rs.Fetch(context.Background(), 5); err == nil {
		t.Fatal("expected an out-of-range error")
	}
}
