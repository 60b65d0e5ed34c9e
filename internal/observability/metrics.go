package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// Ingestion run rate. Watch for: runs stopping (scheduler dead).
	IngestRunsTotal prometheus.Counter

	// Per-location ingestion outcomes. Watch for: error vs success ratio.
	IngestLocationsTotal *prometheus.CounterVec

	// Provider call outcomes. Watch for: sustained failures = upstream outage.
	ProviderRequestsTotal *prometheus.CounterVec

	// Rows written through the upsert path.
	ReadingsUpsertedTotal prometheus.Counter

	// Query endpoint traffic by query name.
	QueriesTotal *prometheus.CounterVec
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	IngestRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ingestRunsTotal",
		Help: "Total number of ingestion runs",
	})

	IngestLocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingestLocationsTotal",
			Help: "Per-location ingestion outcomes",
		},
		[]string{"location", "outcome"},
	)

	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "providerRequestsTotal",
			Help: "Forecast provider calls by outcome",
		},
		[]string{"outcome"},
	)

	ReadingsUpsertedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "readingsUpsertedTotal",
		Help: "Total reading rows written through the upsert path",
	})

	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queriesTotal",
			Help: "Analytical query executions by query name",
		},
		[]string{"query"},
	)

	registry.MustRegister(
		IngestRunsTotal,
		IngestLocationsTotal,
		ProviderRequestsTotal,
		ReadingsUpsertedTotal,
		QueriesTotal,
	)
}

// MetricsHandler returns the HTTP handler exposing the service registry.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
