package ingest

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus counters for the ingestion pipeline, grounded on
// _examples/cuemby-warren/pkg/metrics: a package-level var block of
// collectors registered once in init(), plus a small Timer helper for
// histogram observations.
var (
	eventsAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "notedb",
		Subsystem: "ingest",
		Name:      "events_accepted_total",
		Help:      "Events that reached Committed.",
	})
	eventsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notedb",
		Subsystem: "ingest",
		Name:      "events_rejected_total",
		Help:      "Events dropped before Committed, by reason.",
	}, []string{"reason"})
	queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "notedb",
		Subsystem: "ingest",
		Name:      "queue_depth",
		Help:      "Current number of frames waiting in the ingest queue.",
	})
	batchCommitSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "notedb",
		Subsystem: "ingest",
		Name:      "batch_commit_seconds",
		Help:      "Wall time spent inside a single writer-batch commit.",
		Buckets:   prometheus.DefBuckets,
	})
	batchesDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "notedb",
		Subsystem: "ingest",
		Name:      "batches_dropped_total",
		Help:      "Batches dropped after persistent commit failure (map-size growth exhausted its ceiling).",
	})
)

func init() {
	prometheus.MustRegister(eventsAccepted, eventsRejected, queueDepth, batchCommitSeconds, batchesDropped)
}

// timer: start now, observe elapsed duration into a histogram at the
// end of a scope.
type timer struct{ start time.Time }

func newTimer() timer { return timer{start: time.Now()} }

func (t timer) observeDuration(h prometheus.Histogram) { h.Observe(time.Since(t.start).Seconds()) }
