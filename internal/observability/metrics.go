package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mapplot"

// Metrics holds the Prometheus counters, histograms, and gauges for the render service.
type Metrics struct {
	MessagesConsumed prometheus.Counter
	MessagesProduced prometheus.Counter
	RenderErrors     prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Render metrics.
	Renders        *prometheus.CounterVec   // labels: product, outcome={success,invalid,error}
	RenderDuration *prometheus.HistogramVec // labels: product
}

// Render outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

var (
	batchSizeBuckets      = []float64{1, 5, 10, 20, 30, 40, 50, 75, 100}
	batchDurationBuckets  = []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120}
	renderDurationBuckets = []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60}
)

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.MessagesConsumed,
		m.MessagesProduced,
		m.RenderErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.Renders,
		m.RenderDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// ObserveRender records one render attempt.
func (m *Metrics) ObserveRender(product, outcome string, seconds float64) {
	m.Renders.WithLabelValues(product, outcome).Inc()
	if outcome == OutcomeSuccess {
		m.RenderDuration.WithLabelValues(product).Observe(seconds)
	}
}

func newMetrics() *Metrics {
	return &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_consumed_total",
			Help:      "Total render requests read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Total rendered-product events written to the sink topic.",
		}),
		RenderErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_errors_total",
			Help:      "Total requests skipped because they could not be rendered.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of requests per batch extracted from Kafka.",
			Buckets:   batchSizeBuckets,
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-render-load cycle.",
			Buckets:   batchDurationBuckets,
		}),
		Renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Render attempts by product and outcome.",
		}, []string{"product", "outcome"}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Successful render duration by product.",
			Buckets:   renderDurationBuckets,
		}, []string{"product"}),
	}
}
