package memdriver

import (
	"context"
	"fmt"
)

// MatrixRowSource implements semkmeans.RowSource over a dense,
// row-major []float64 matrix held entirely in memory: row r occupies
// data[r*dim : (r+1)*dim]. Grounded on the teacher's
// vectorstore.ColumnarStore contiguous-slice layout, adapted from
// float32 vectors to the float64 rows this engine operates on.
//
// Fetch never blocks and never errors except on an out-of-range row
// id — it exists to give the pruning engine's cache-miss path
// something to call in tests and examples, not to emulate I/O.
type MatrixRowSource struct {
	data []float64
	rows int
	dim  int
}

// New wraps data as a RowSource of rows rows by dim columns. len(data)
// must equal rows*dim.
func New(data []float64, rows, dim int) (*MatrixRowSource, error) {
	if rows < 0 || dim < 1 {
		return nil, fmt.Errorf("memdriver: invalid shape rows=%d dim=%d", rows, dim)
	}
	if len(data) != rows*dim {
		return nil, fmt.Errorf("memdriver: data has %d elements, want rows*dim=%d", len(data), rows*dim)
	}
	return &MatrixRowSource{data: data, rows: rows, dim: dim}, nil
}

// Dim implements semkmeans.RowSource.
func (m *MatrixRowSource) Dim() int { return m.dim }

// Rows implements semkmeans.RowSource.
func (m *MatrixRowSource) Rows() int { return m.rows }

// Fetch implements semkmeans.RowSource. The returned slice aliases the
// underlying matrix; callers (and the engine) must not mutate it.
func (m *MatrixRowSource) Fetch(ctx context.Context, r int) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r < 0 || r >= m.rows {
		return nil, fmt.Errorf("memdriver: row %d out of range [0,%d)", r, m.rows)
	}
	start := r * m.dim
	return m.data[start : start+m.dim], nil
}

// Row returns row r's slice directly, without the RowSource interface's
// context/error ceremony — a convenience for callers that already hold
// a MatrixRowSource and want to inspect a row (e.g. in tests).
func (m *MatrixRowSource) Row(r int) []float64 {
	start := r * m.dim
	return m.data[start : start+m.dim]
}
