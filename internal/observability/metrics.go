package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters for the ingestion and alerting path.
type Metrics struct {
	ReadingsIngested  prometheus.Counter
	IngestFailures    prometheus.Counter
	AlertsGenerated   *prometheus.CounterVec // label: type
	TxRetries         prometheus.Counter
	CacheLookups      *prometheus.CounterVec // label: result={hit,miss}
	WebhookDeliveries *prometheus.CounterVec // label: outcome={success,error}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ReadingsIngested,
		m.IngestFailures,
		m.AlertsGenerated,
		m.TxRetries,
		m.CacheLookups,
		m.WebhookDeliveries,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReadingsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sced",
			Name:      "readings_ingested_total",
			Help:      "Total sensor readings accepted and persisted.",
		}),
		IngestFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sced",
			Name:      "ingest_failures_total",
			Help:      "Total readings rejected or failed to persist.",
		}),
		AlertsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sced",
			Name:      "alerts_generated_total",
			Help:      "Alerts generated by the rule engine, by alert type.",
		}, []string{"type"}),
		TxRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sced",
			Name:      "tx_retries_total",
			Help:      "Transaction retries caused by transient storage errors.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sced",
			Name:      "dashboard_cache_lookups_total",
			Help:      "Dashboard cache lookups by result.",
		}, []string{"result"}),
		WebhookDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sced",
			Name:      "webhook_deliveries_total",
			Help:      "Alert webhook deliveries by outcome.",
		}, []string{"outcome"}),
	}
}
