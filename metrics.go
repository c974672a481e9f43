package semkmeans

import "sync/atomic"

// MetricsCollector defines an interface for collecting operational
// metrics. Its method set matches internal/kmcore.MetricsCollector by
// construction — any MetricsCollector satisfies that interface too.
// Implement this to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// IncCounter adds delta to the named counter (e.g.
	// "kmeans.iterations", "kmeans.io_requests").
	IncCounter(name string, delta int64)
	// ObserveValue records an instantaneous value for the named gauge
	// (e.g. "kmeans.cache_hits").
	ObserveValue(name string, v float64)
}

// NoopMetricsCollector discards everything. Use this when metrics
// collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) IncCounter(string, int64)   {}
func (NoopMetricsCollector) ObserveValue(string, float64) {}

// BasicMetricsCollector provides simple in-memory metrics collection,
// useful for debugging and basic monitoring without external
// dependencies. Unlike the teacher's per-operation Record* methods,
// this engine reports through kmcore's generic named-counter interface,
// so BasicMetricsCollector dispatches by metric name instead of having
// one method per operation.
type BasicMetricsCollector struct {
	Iterations  atomic.Int64
	IORequests  atomic.Int64
	CacheHits   atomic.Int64
}

// IncCounter implements MetricsCollector.
func (b *BasicMetricsCollector) IncCounter(name string, delta int64) {
	switch name {
	case "kmeans.iterations":
		b.Iterations.Add(delta)
	case "kmeans.io_requests":
		b.IORequests.Add(delta)
	}
}

// ObserveValue implements MetricsCollector.
func (b *BasicMetricsCollector) ObserveValue(name string, v float64) {
	switch name {
	case "kmeans.cache_hits":
		b.CacheHits.Store(int64(v))
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		Iterations: b.Iterations.Load(),
		IORequests: b.IORequests.Load(),
		CacheHits:  b.CacheHits.Load(),
	}
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	Iterations int64
	IORequests int64
	CacheHits  int64
}
