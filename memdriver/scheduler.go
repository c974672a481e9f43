package memdriver

import (
	"context"

	"github.com/hupe1980/semkmeans"
)

// Cluster builds a MatrixRowSource over data and runs one clustering
// job against it, applying configure (if non-nil) to the default
// Builder before running. It is the single-process reference
// "scheduler": row activation, per-row dispatch, partition ids, and
// the per-partition end-of-iteration hook are all satisfied by
// semkmeans.Builder.Run/internal/kmcore.Engine — this function only
// supplies the RowSource half of the collaborator contract and a
// one-call entry point for tests and examples.
func Cluster(ctx context.Context, data []float64, rows, dim, k int, configure func(semkmeans.Builder) semkmeans.Builder) (*semkmeans.Result, error) {
	rs, err := New(data, rows, dim)
	if err != nil {
		return nil, err
	}

	b := semkmeans.New(rs, k)
	if configure != nil {
		b = configure(b)
	}
	return b.Run(ctx)
}
