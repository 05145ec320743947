package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// latencyBuckets span a single small forward pass up to a long generation.
var latencyBuckets = []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30}

// Metrics holds the server's Prometheus collectors on a private registry so
// several servers (and tests) can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	TokensTotal     *prometheus.CounterVec
	StoredResults   prometheus.GaugeFunc
}

func NewMetrics(store *TranslationStore) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transl8_requests_total",
				Help: "Model requests by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "transl8_request_duration_seconds",
				Help:    "Model request duration",
				Buckets: latencyBuckets,
			},
			[]string{"endpoint"},
		),
		TokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transl8_tokens_total",
				Help: "Tokens processed by direction (input/output)",
			},
			[]string{"direction"},
		),
	}
	m.StoredResults = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "transl8_stored_translations",
			Help: "Translations held in the result store",
		},
		func() float64 { return float64(store.Len()) },
	)
	m.registry.MustRegister(m.RequestsTotal, m.RequestDuration, m.TokensTotal, m.StoredResults)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observe(endpoint string, start time.Time, err error) {
	m.RequestsTotal.WithLabelValues(endpoint, outcome(err)).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func (m *Metrics) countTokens(input, output int) {
	m.TokensTotal.WithLabelValues("input").Add(float64(input))
	m.TokensTotal.WithLabelValues("output").Add(float64(output))
}

// outcome mirrors the status classes writeServiceError produces.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case isClientError(err):
		return "invalid"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}
