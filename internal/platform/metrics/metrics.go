package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. Construct with an
// explicit registerer so test suites can use isolated registries.
type Metrics struct {
	RegistrationsSubmitted prometheus.Counter
	RegistrationsWithdrawn prometheus.Counter
	StatusTransitions      *prometheus.CounterVec
	ResultsRecorded        prometheus.Counter
	BloodTypeConfirmations prometheus.Counter
	HTTPDuration           *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RegistrationsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_registrations_submitted_total",
			Help: "Total number of donation registrations submitted",
		}),
		RegistrationsWithdrawn: factory.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_registrations_withdrawn_total",
			Help: "Total number of pending registrations withdrawn by donors",
		}),
		StatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodlink_status_transitions_total",
			Help: "Total number of registration status transitions by outcome",
		}, []string{"status"}),
		ResultsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_donation_results_recorded_total",
			Help: "Total number of donation results persisted",
		}),
		BloodTypeConfirmations: factory.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_blood_type_confirmations_total",
			Help: "Total number of blood type confirmations recorded",
		}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bloodlink_http_request_duration_seconds",
			Help:    "Latency of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// ObserveHTTP records one request's latency.
func (m *Metrics) ObserveHTTP(method, path string, d time.Duration) {
	m.HTTPDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
