// Package metrics provides Prometheus metrics for the sales prediction service.
// It covers model loading, prediction throughput and latency, input
// normalization, and the HTTP surface that serves predictions.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Prediction metrics
	MLPredictions prometheus.Counter     // Total number of records scored
	MLFailures    *prometheus.CounterVec // Prediction failures by kind
	MLLatency     prometheus.Histogram   // Prediction latency in seconds
	MLBatchSize   prometheus.Histogram   // Records per prediction call

	// Model lifecycle metrics
	MLModelLoads        prometheus.Counter   // Load attempts
	MLModelLoadFailures prometheus.Counter   // Failed load attempts
	MLModelLoadDuration prometheus.Histogram // Duration of successful loads
	MLModelLoaded       prometheus.Gauge     // 1 once a model is loaded
	MLModelAge          prometheus.Gauge     // Seconds since the model was trained

	// Input metrics
	RecordsNormalized prometheus.Counter // Raw records passed through normalization

	// HTTP metrics
	HTTPRequests     *prometheus.CounterVec   // Requests by route, method and status
	HTTPDuration     *prometheus.HistogramVec // Request duration by route
	WSConnections    prometheus.Gauge         // Open websocket prediction streams
	WSMessagesScored prometheus.Counter       // Websocket messages answered

	gatherer prometheus.Gatherer
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
// When registerer is also a Gatherer, Handler serves from it.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	gatherer := prometheus.DefaultGatherer
	if g, ok := registerer.(prometheus.Gatherer); ok {
		gatherer = g
	}

	return &Metrics{
		MLPredictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "sales_predictions_total",
			Help: "Total number of records scored",
		}),
		MLFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sales_prediction_failures_total",
			Help: "Total number of failed prediction calls by kind",
		}, []string{"kind"}),
		MLLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sales_prediction_latency_seconds",
			Help:    "Prediction latency in seconds (end-to-end, including lazy load)",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}),
		MLBatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sales_prediction_batch_size",
			Help:    "Number of records per prediction call",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		MLModelLoads: factory.NewCounter(prometheus.CounterOpts{
			Name: "sales_model_loads_total",
			Help: "Total number of model load attempts",
		}),
		MLModelLoadFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "sales_model_load_failures_total",
			Help: "Total number of failed model load attempts",
		}),
		MLModelLoadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sales_model_load_duration_seconds",
			Help:    "Duration of successful model loads in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		MLModelLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sales_model_loaded",
			Help: "Whether a model is loaded (1) or not (0)",
		}),
		MLModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sales_model_age_seconds",
			Help: "Age of the loaded model since training, in seconds",
		}),
		RecordsNormalized: factory.NewCounter(prometheus.CounterOpts{
			Name: "sales_records_normalized_total",
			Help: "Total number of raw records normalized",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"route", "method", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ws_connections",
			Help: "Number of open websocket prediction streams",
		}),
		WSMessagesScored: factory.NewCounter(prometheus.CounterOpts{
			Name: "ws_messages_scored_total",
			Help: "Total number of websocket messages answered with a prediction",
		}),
		gatherer: gatherer,
	}
}

// ObserveHTTP records one completed HTTP request.
func (m *Metrics) ObserveHTTP(route, method string, status int, seconds float64) {
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(seconds)
}

// Handler exposes the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
