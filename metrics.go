package scriptmetric

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Collectors may be shared by aggregators running in parallel and must be
// safe for concurrent use.
type MetricsCollector interface {
	// RecordBucketCreated is called once per bucket, after its memory charge
	// succeeded.
	RecordBucketCreated(chargedBytes int64)

	// RecordBudgetExceeded is called when a bucket charge is rejected.
	RecordBudgetExceeded()

	// RecordMapExecution is called after every map script invocation.
	RecordMapExecution(err error)

	// RecordBuild is called after each result extraction.
	RecordBuild(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordBucketCreated(int64)        {}
func (NoopMetricsCollector) RecordBudgetExceeded()            {}
func (NoopMetricsCollector) RecordMapExecution(error)         {}
func (NoopMetricsCollector) RecordBuild(time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	BucketsCreated  atomic.Int64
	ChargedBytes    atomic.Int64
	BudgetExceeded  atomic.Int64
	MapExecutions   atomic.Int64
	MapErrors       atomic.Int64
	BuildCount      atomic.Int64
	BuildErrors     atomic.Int64
	BuildTotalNanos atomic.Int64
}

// RecordBucketCreated implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBucketCreated(chargedBytes int64) {
	b.BucketsCreated.Add(1)
	b.ChargedBytes.Add(chargedBytes)
}

// RecordBudgetExceeded implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBudgetExceeded() {
	b.BudgetExceeded.Add(1)
}

// RecordMapExecution implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMapExecution(err error) {
	b.MapExecutions.Add(1)
	if err != nil {
		b.MapErrors.Add(1)
	}
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(duration time.Duration, err error) {
	b.BuildCount.Add(1)
	b.BuildTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.BuildErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		BucketsCreated: b.BucketsCreated.Load(),
		ChargedBytes:   b.ChargedBytes.Load(),
		BudgetExceeded: b.BudgetExceeded.Load(),
		MapExecutions:  b.MapExecutions.Load(),
		MapErrors:      b.MapErrors.Load(),
		BuildCount:     b.BuildCount.Load(),
		BuildErrors:    b.BuildErrors.Load(),
		BuildAvgNanos:  b.getAvgBuildNanos(),
	}
}

func (b *BasicMetricsCollector) getAvgBuildNanos() int64 {
	count := b.BuildCount.Load()
	if count == 0 {
		return 0
	}
	return b.BuildTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	BucketsCreated int64
	ChargedBytes   int64
	BudgetExceeded int64
	MapExecutions  int64
	MapErrors      int64
	BuildCount     int64
	BuildErrors    int64
	BuildAvgNanos  int64
}
