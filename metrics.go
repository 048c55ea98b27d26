package darkroom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gogpu/darkroom/ops"
)

// Metrics counts edit-history activity. A nil *Metrics records nothing, so
// a History without WithMetrics pays no cost.
type Metrics struct {
	applied        *prometheus.CounterVec
	rejected       *prometheus.CounterVec
	undos          prometheus.Counter
	redos          prometheus.Counter
	replayed       prometheus.Counter
	checkpointHits prometheus.Counter
	recompute      prometheus.Histogram
}

// NewMetrics creates the darkroom collectors and registers them with reg.
// A nil reg leaves them unregistered, which is useful in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		applied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "darkroom",
			Name:      "operations_applied_total",
			Help:      "Operations committed to an edit history, by kind.",
		}, []string{"kind"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "darkroom",
			Name:      "operations_rejected_total",
			Help:      "Operations that failed validation or pixel processing, by kind.",
		}, []string{"kind"}),
		undos: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "darkroom",
			Name:      "undos_total",
			Help:      "Successful undo steps.",
		}),
		redos: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "darkroom",
			Name:      "redos_total",
			Help:      "Successful redo steps.",
		}),
		replayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "darkroom",
			Name:      "records_replayed_total",
			Help:      "Records run through the pixel pipeline during recomputes.",
		}),
		checkpointHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "darkroom",
			Name:      "checkpoint_hits_total",
			Help:      "Recomputes that started from a cached intermediate image.",
		}),
		recompute: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "darkroom",
			Name:      "recompute_duration_seconds",
			Help:      "Time spent recomputing the current image.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.applied, m.rejected, m.undos, m.redos, m.replayed, m.checkpointHits, m.recompute)
	}
	return m
}

func (m *Metrics) observeApply(op ops.Op) {
	if m == nil {
		return
	}
	m.applied.WithLabelValues(op.Kind().String()).Inc()
}

func (m *Metrics) observeReject(op ops.Op) {
	if m == nil {
		return
	}
	kind := "unknown"
	if op != nil {
		kind = op.Kind().String()
	}
	m.rejected.WithLabelValues(kind).Inc()
}

func (m *Metrics) observeUndo() {
	if m != nil {
		m.undos.Inc()
	}
}

func (m *Metrics) observeRedo() {
	if m != nil {
		m.redos.Inc()
	}
}

func (m *Metrics) observeReplay(records int, fromCheckpoint bool) {
	if m == nil {
		return
	}
	m.replayed.Add(float64(records))
	if fromCheckpoint {
		m.checkpointHits.Inc()
	}
}

// startRecompute returns a function that records the elapsed time.
func (m *Metrics) startRecompute() func() {
	if m == nil {
		return func() {}
	}
	timer := prometheus.NewTimer(m.recompute)
	return func() { timer.ObserveDuration() }
}
