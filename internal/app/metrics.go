package app

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jsamuelsen/quote-service/internal/domain"
)

// Outcome label values.
const (
	outcomeSuccess  = "success"
	outcomeNotFound = "not_found"
	outcomeInvalid  = "invalid"
	outcomeError    = "error"
)

// Metrics holds Prometheus metrics for the quote service.
//
// Metrics:
//   - quote_service_operations_total{operation,outcome} - service calls by result
//   - quote_service_operation_duration_seconds{operation} - service call latency
//   - quote_store_quotes - quotes currently stored, refreshed after writes
//   - quote_import_fetched_total{outcome} - remote quotes fetched by the importer
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	StoredQuotes      prometheus.Gauge
	ImportFetched     *prometheus.CounterVec
}

// NewMetrics creates the service metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer to expose them on the /-/metrics endpoint.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quote_service_operations_total",
				Help: "Total number of quote service operations",
			},
			[]string{"operation", "outcome"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quote_service_operation_duration_seconds",
				Help:    "Duration of quote service operations in seconds",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"operation"},
		),
		StoredQuotes: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "quote_store_quotes",
				Help: "Number of quotes currently stored",
			},
		),
		ImportFetched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quote_import_fetched_total",
				Help: "Total number of quotes fetched from the remote source",
			},
			[]string{"outcome"},
		),
	}
}

// observe records one operation. Call it deferred with the start time.
func (m *Metrics) observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}

	m.OperationsTotal.WithLabelValues(op, outcomeOf(err)).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) setStored(n int) {
	if m == nil {
		return
	}

	m.StoredQuotes.Set(float64(n))
}

func (m *Metrics) fetched(err error) {
	if m == nil {
		return
	}

	m.ImportFetched.WithLabelValues(outcomeOf(err)).Inc()
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeSuccess
	case domain.IsNotFound(err):
		return outcomeNotFound
	case domain.IsValidation(err):
		return outcomeInvalid
	default:
		return outcomeError
	}
}
