package semkmeans

import (
	"errors"
	"fmt"

	"github.com/hupe1980/semkmeans/internal/kmcore"
)

var (
	// ErrConfiguration wraps every configuration-time failure: invalid K,
	// invalid dimension, missing caller centers, an out-of-range
	// tolerance, or a degenerate k-means++ dataset.
	ErrConfiguration = errors.New("semkmeans: invalid configuration")

	// ErrInvariant wraps an internal assertion failure — corrupted engine
	// state, never a caller mistake. Run recovers the panic kmcore raises
	// for these and returns them through this sentinel.
	ErrInvariant = errors.New("semkmeans: internal invariant violated")

	// ErrIO wraps a row-fetch failure returned by the caller's RowSource.
	// The iteration in progress is abandoned; no partial M-step runs.
	ErrIO = errors.New("semkmeans: row fetch failed")

	// ErrCanceled is returned alongside the partial Result as of the
	// last completed M-step when ctx is canceled mid-run.
	ErrCanceled = errors.New("semkmeans: run canceled")
)

// ErrInvalidK indicates a configured K outside [2, N].
type ErrInvalidK struct {
	K, N int
}

func (e *ErrInvalidK) Error() string {
	return fmt.Sprintf("semkmeans: K must satisfy 2 <= K <= N, got K=%d N=%d", e.K, e.N)
}

// ErrInvalidDimension indicates a RowSource reporting a non-positive Dim.
type ErrInvalidDimension struct {
	Dimension int
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("semkmeans: invalid row dimension %d", e.Dimension)
}

// ErrMissingCenters indicates CallerCenters was set with a length that
// doesn't match K, or Init is InitCallerCenters with no centers supplied.
type ErrMissingCenters struct {
	Want, Got int
}

func (e *ErrMissingCenters) Error() string {
	return fmt.Sprintf("semkmeans: caller_centers init needs exactly %d centers, got %d", e.Want, e.Got)
}

// ErrToleranceRange indicates a Tolerance outside [0,1].
type ErrToleranceRange struct {
	Tolerance float64
}

func (e *ErrToleranceRange) Error() string {
	return fmt.Sprintf("semkmeans: tolerance must be in [0,1], got %v", e.Tolerance)
}

// ErrDegenerateInit indicates k-means++ selection found every remaining
// row at zero D² distance from the chosen centers — the row source is
// too degenerate (too few distinct points) to seed K centers this way.
type ErrDegenerateInit struct {
	Pick int
}

func (e *ErrDegenerateInit) Error() string {
	return fmt.Sprintf("semkmeans: degenerate dataset selecting k-means++ center %d", e.Pick)
}

// JobError is returned by Run for a run that ended abnormally but still
// produced a usable partial Result (currently only the ErrCanceled
// case). Callers that only care whether the run is usable should check
// errors.Is(err, ErrCanceled) rather than type-asserting this struct.
type JobError struct {
	Result *Result
	Err    error
}

func (e *JobError) Error() string { return e.Err.Error() }
func (e *JobError) Unwrap() error { return e.Err }

// translateError maps an internal kmcore error into this package's
// sentinel-wrapped hierarchy, matching the teacher's errors.go
// translateError unification function.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var degenerate *kmcore.ErrDegenerateInit
	if errors.As(err, &degenerate) {
		return fmt.Errorf("%w: %w", ErrConfiguration, &ErrDegenerateInit{Pick: degenerate.Pick})
	}

	var invariant *kmcore.InvariantError
	if errors.As(err, &invariant) {
		return fmt.Errorf("%w: %w", ErrInvariant, err)
	}

	var ioErr *kmcore.IOError
	if errors.As(err, &ioErr) {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	var canceled *kmcore.CanceledError
	if errors.As(err, &canceled) {
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	}

	return fmt.Errorf("%w: %w", ErrConfiguration, err)
}
