package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for a processing run.
type Metrics struct {
	RecordsApplied  *prometheus.CounterVec
	RecordsRejected *prometheus.CounterVec
	ApplyDuration   *prometheus.HistogramVec

	AccountsTracked prometheus.Gauge
	DisputesOpen    prometheus.Gauge
	AccountsLocked  prometheus.Counter
	EventsPublished prometheus.Counter
	PublishFailures prometheus.Counter
}

// NewMetrics creates and registers all metrics on reg. Pass a fresh
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	applyBuckets := []float64{
		0.000001, 0.000005, 0.00001, 0.000025, 0.00005,
		0.0001, 0.00025, 0.0005, 0.001,
	}

	factory := promauto.With(reg)

	return &Metrics{
		RecordsApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payledger_records_applied_total",
			Help: "Records successfully applied by the engine",
		}, []string{"type"}),

		RecordsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "payledger_records_rejected_total",
			Help: "Records rejected (decode failure or engine validation)",
		}, []string{"type", "reason"}),

		ApplyDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payledger_record_apply_duration_seconds",
			Help:    "Time to apply a single record",
			Buckets: applyBuckets,
		}, []string{"type"}),

		AccountsTracked: factory.NewGauge(prometheus.GaugeOpts{
			Name: "payledger_accounts_tracked",
			Help: "Number of client accounts created so far",
		}),

		DisputesOpen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "payledger_disputes_open",
			Help: "Currently open disputes",
		}),

		AccountsLocked: factory.NewCounter(prometheus.CounterOpts{
			Name: "payledger_accounts_locked_total",
			Help: "Accounts locked by a chargeback",
		}),

		EventsPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "payledger_events_published_total",
			Help: "Applied-transaction events published to NATS",
		}),

		PublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "payledger_event_publish_failures_total",
			Help: "Failed outbound event publishes (non-fatal)",
		}),
	}
}
