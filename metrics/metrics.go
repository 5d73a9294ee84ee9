package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for jury selection.
type Metrics struct {
	// Registered candidates
	Candidates prometheus.Gauge

	// Randomness requests issued to the oracle
	Requests prometheus.Counter

	// Requests awaiting their callback
	Pending prometheus.Gauge

	// Completed selection rounds
	Selections prometheus.Counter

	// Rejected callbacks by reason
	RejectedCallbacks *prometheus.CounterVec

	// Time between request and successful fulfillment
	FulfillmentLatency prometheus.Histogram
}

// New registers the jury metrics with reg. A nil reg falls back to the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Candidates: f.NewGauge(prometheus.GaugeOpts{
			Name: "vrfjury_candidates",
			Help: "Number of registered candidates",
		}),

		Requests: f.NewCounter(prometheus.CounterOpts{
			Name: "vrfjury_randomness_requests_total",
			Help: "Total randomness requests issued to the oracle",
		}),

		Pending: f.NewGauge(prometheus.GaugeOpts{
			Name: "vrfjury_pending_requests",
			Help: "Randomness requests awaiting fulfillment",
		}),

		Selections: f.NewCounter(prometheus.CounterOpts{
			Name: "vrfjury_selections_total",
			Help: "Total completed selection rounds",
		}),

		RejectedCallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vrfjury_rejected_callbacks_total",
			Help: "Randomness callbacks rejected by reason",
		}, []string{"reason"}), // reason: "unauthorized", "unknown_request", "word_count", "selection_count"

		FulfillmentLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "vrfjury_fulfillment_duration_seconds",
			Help:    "Duration between a randomness request and its fulfillment",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
	}
}

func (m *Metrics) SetCandidates(n int) {
	if m != nil {
		m.Candidates.Set(float64(n))
	}
}

// IncrementRequests records an accepted randomness request.
func (m *Metrics) IncrementRequests() {
	if m != nil {
		m.Requests.Inc()
		m.Pending.Inc()
	}
}

// ObserveSelection records a completed round and how long its request waited.
func (m *Metrics) ObserveSelection(d time.Duration) {
	if m != nil {
		m.Selections.Inc()
		m.Pending.Dec()
		m.FulfillmentLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementRejected(reason string) {
	if m != nil {
		m.RejectedCallbacks.WithLabelValues(reason).Inc()
	}
}
