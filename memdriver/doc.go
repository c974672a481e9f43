// Package memdriver supplies a reference RowSource over an in-memory,
// row-major []float64 matrix, and a minimal single-process helper that
// runs a clustering job directly against that matrix.
//
// This is a reference/test harness, not the external scheduler
// semkmeans.RowSource is designed to be backed by in production — it
// exists to exercise the whole engine in tests and examples without a
// real paged-I/O execution engine behind it.
package memdriver
