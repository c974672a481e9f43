package kmcore

import "context"

// RowSource is the external row-fetch collaborator (spec §4.7, §6):
// the streaming graph/page execution engine that actually materializes
// a row from disk is deliberately out of the core's scope, but the core
// needs *some* interface to pull a row on a cache miss.
type RowSource interface {
	// Dim returns D, the number of doubles per row.
	Dim() int
	// Rows returns N, the total row count.
	Rows() int
	// Fetch materializes row r as D doubles. Implementations may block
	// on external I/O; the engine never calls Fetch concurrently for the
	// same row.
	Fetch(ctx context.Context, r int) ([]float64, error)
}
