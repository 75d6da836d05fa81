package sequencer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kzg_ceremony"

// Rejection classes, used as the "reason" label of the rejection counter.
const (
	ReasonShape     = "shape"
	ReasonInvalid   = "invalid"
	ReasonBackend   = "backend"
	ReasonTimeout   = "timeout"
	ReasonSignature = "signature"
	ReasonHalted    = "halted"
	ReasonStorage   = "storage"
)

// Metrics are the prometheus collectors updated by a Sequencer.
type Metrics struct {
	Rounds        prometheus.Counter
	Rejections    *prometheus.CounterVec
	VerifySeconds prometheus.Histogram
	Participants  prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg, if not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Rounds: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_committed_total",
			Help:      "Number of contributions committed.",
		}),
		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contributions_rejected_total",
			Help:      "Number of contributions rejected, by reason.",
		}, []string{"reason"}),
		VerifySeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "verify_duration_seconds",
			Help:      "Time spent verifying a contribution.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		Participants: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "participants",
			Help:      "Number of participants who contributed so far.",
		}),
	}
}
