package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	upstreamRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitness_service",
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Calls made to the health-data provider, by operation and outcome.",
	}, []string{"operation", "outcome"})
	upstreamLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fitness_service",
		Subsystem: "upstream",
		Name:      "request_duration_seconds",
		Help:      "Latency of calls made to the health-data provider.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
	recordsNormalized = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fitness_service",
		Subsystem: "normalize",
		Name:      "records_total",
		Help:      "Daily records produced by the normalization engine.",
	})
	documentWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitness_service",
		Subsystem: "persistence",
		Name:      "writes_total",
		Help:      "Document store writes, by collection and outcome (created, skipped, error).",
	}, []string{"collection", "outcome"})
)

func init() {
	prometheus.MustRegister(upstreamRequests, upstreamLatency, recordsNormalized, documentWrites)
}

// ObserveUpstream records one provider call.
func ObserveUpstream(operation string, started time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	upstreamRequests.WithLabelValues(operation, outcome).Inc()
	upstreamLatency.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// AddNormalized bumps the normalized record counter.
func AddNormalized(n int) {
	if n <= 0 {
		return
	}
	recordsNormalized.Add(float64(n))
}

// RecordWrite counts a document store write attempt.
func RecordWrite(collection, outcome string) {
	documentWrites.WithLabelValues(collection, outcome).Inc()
}
