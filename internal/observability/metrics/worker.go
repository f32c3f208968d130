package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/ai-closet/internal/core/domain"
)

type WorkerMetrics struct {
	service  string
	registry *prometheus.Registry

	processTotal    *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	processInFlight prometheus.Gauge
	stageTotal      *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	upstreamRetries *prometheus.CounterVec
	breakerOpen     *prometheus.GaugeVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "closet",
			Subsystem: "worker",
			Name:      "item_process_total",
			Help:      "Total processed clothing items by task outcome.",
		},
		[]string{"service", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "closet",
			Subsystem: "worker",
			Name:      "item_process_duration_seconds",
			Help:      "Clothing item processing duration in seconds by task outcome.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"service", "status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "closet",
			Subsystem: "worker",
			Name:      "item_process_in_flight",
			Help:      "Number of in-flight item processing tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	stageTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "closet",
			Subsystem: "pipeline",
			Name:      "stage_total",
			Help:      "Pipeline stage outcomes.",
		},
		[]string{"service", "stage", "status"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "closet",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"service", "stage"},
	)

	upstreamRetries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "closet",
			Subsystem: "upstream",
			Name:      "retries_total",
			Help:      "Retried calls to background removal, categorization and image hosts.",
		},
		[]string{"service", "operation"},
	)
	breakerOpen := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "closet",
			Subsystem: "upstream",
			Name:      "breaker_open",
			Help:      "1 while the circuit breaker of an upstream operation is open.",
		},
		[]string{"service", "operation"},
	)

	registry.MustRegister(processTotal, processDuration, processInFlight, stageTotal, stageDuration, upstreamRetries, breakerOpen)

	return &WorkerMetrics{
		service:         service,
		registry:        registry,
		processTotal:    processTotal,
		processDuration: processDuration,
		processInFlight: processInFlight,
		stageTotal:      stageTotal,
		stageDuration:   stageDuration,
		upstreamRetries: upstreamRetries,
		breakerOpen:     breakerOpen,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry lets the API process expose worker metrics on its own endpoint
// when the pipeline runs in-process.
func (m *WorkerMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *WorkerMetrics) StartItem() {
	m.processInFlight.Inc()
}

func (m *WorkerMetrics) FinishItem(duration time.Duration, err error) {
	m.processInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.processTotal.WithLabelValues(m.service, status).Inc()
	m.processDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveStage(stage domain.Stage, status domain.StageStatus, duration time.Duration) {
	m.stageTotal.WithLabelValues(m.service, string(stage), string(status)).Inc()
	m.stageDuration.WithLabelValues(m.service, string(stage)).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveRetry(operation string) {
	m.upstreamRetries.WithLabelValues(m.service, operation).Inc()
}

func (m *WorkerMetrics) ObserveBreakerState(operation string, open bool) {
	v := 0.0
	if open {
		v = 1
	}
	m.breakerOpen.WithLabelValues(m.service, operation).Set(v)
}
