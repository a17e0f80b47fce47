package verification

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks verification verdicts and latency
type Metrics struct {
	Verdicts *prometheus.CounterVec
	Duration prometheus.Histogram
}

// NewMetrics registers the verification metrics with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "verification_verdicts_total",
			Help: "Total number of verifications by verdict",
		}, []string{"verdict"}),
		Duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "verification_duration_seconds",
			Help:    "Duration of single credential verifications",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
	}
}

// defaultMetrics are registered once with the default registry served on /metrics
var defaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

// ObserveVerification records the verdict and duration of a verification.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveVerification(verdict Verdict, start time.Time) {
	m.Verdicts.WithLabelValues(string(verdict)).Inc()
	m.Duration.Observe(time.Since(start).Seconds())
}
