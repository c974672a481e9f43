package semkmeans

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with semkmeans-specific context. Satisfies
// internal/kmcore.Logger by construction.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler. If handler is
// nil, uses a default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // unreachable level
	})
	return &Logger{Logger: slog.New(handler)}
}

// WithRun adds the job's seed to the logger's context.
func (l *Logger) WithRun(seed int64) *Logger {
	return &Logger{Logger: l.Logger.With("seed", seed)}
}

// WithIteration adds an iteration field to the logger.
func (l *Logger) WithIteration(iter int) *Logger {
	return &Logger{Logger: l.Logger.With("iter", iter)}
}

// WithCluster adds a cluster id field to the logger.
func (l *Logger) WithCluster(c int) *Logger {
	return &Logger{Logger: l.Logger.With("cluster", c)}
}

// LogRunStart logs the configuration a run was started with.
func (l *Logger) LogRunStart(k, d, n, workers int, init InitMode) {
	l.Info("run started", "k", k, "dim", d, "rows", n, "workers", workers, "init", init)
}

// LogRunComplete logs the final outcome of a run.
func (l *Logger) LogRunComplete(res *Result, err error) {
	if err != nil {
		l.Error("run failed", "error", err)
		return
	}
	l.Info("run complete",
		"iterations", res.Iterations,
		"converged", res.Converged,
		"io_requests", res.IOReqs,
		"cache_hits", res.CacheHits,
	)
}

// LogCacheRegen logs a row cache regeneration, with the new update
// interval U the schedule advanced to.
func (l *Logger) LogCacheRegen(newInterval int) {
	l.Debug("row cache regenerated", "update_interval", newInterval)
}
