// Package metrics exposes Prometheus collectors for report tasks, topic
// generation and the prompt cache.
package metrics

import (
	"net/http"
	"time"

	"github.com/phrazzld/careerpath-api/internal/generation"
	"github.com/phrazzld/careerpath-api/internal/task"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "careerpath"

// Metrics holds the service collectors and implements the task, topic and
// cache observer interfaces.
type Metrics struct {
	registry prometheus.Registerer
	gatherer prometheus.Gatherer

	TasksSubmitted *prometheus.CounterVec
	TasksFinished  *prometheus.CounterVec
	TasksActive    *prometheus.GaugeVec
	TaskDuration   *prometheus.HistogramVec
	TopicAttempts  *prometheus.CounterVec
	TopicDuration  *prometheus.HistogramVec
	CacheLookups   *prometheus.CounterVec
}

var (
	_ task.Observer            = (*Metrics)(nil)
	_ generation.TopicObserver = (*Metrics)(nil)
	_ generation.CacheObserver = (*Metrics)(nil)
)

// New registers the collectors with reg. A nil reg uses a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		gatherer: reg,

		TasksSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tasks_submitted_total",
				Help:      "Total number of background tasks submitted",
			},
			[]string{"task_type"},
		),
		TasksFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tasks_finished_total",
				Help:      "Total number of background tasks that reached a terminal state",
			},
			[]string{"task_type", "status"},
		),
		TasksActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tasks_active",
				Help:      "Number of tasks submitted but not yet finished",
			},
			[]string{"task_type"},
		),
		TaskDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "task_duration_seconds",
				Help:      "Duration of background task execution in seconds",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"task_type", "status"},
		),
		TopicAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "topic_generations_total",
				Help:      "Topic report generation attempts by outcome",
			},
			[]string{"topic", "outcome"},
		),
		TopicDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "topic_generation_duration_seconds",
				Help:      "Duration of a single topic generation call in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"topic"},
		),
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "prompt_cache_lookups_total",
				Help:      "Prompt cache lookups by tier and result",
			},
			[]string{"tier", "result"},
		),
	}
}

// TaskSubmitted implements task.Observer.
func (m *Metrics) TaskSubmitted(taskType string) {
	m.TasksSubmitted.WithLabelValues(taskType).Inc()
	m.TasksActive.WithLabelValues(taskType).Inc()
}

// TaskFinished implements task.Observer.
func (m *Metrics) TaskFinished(taskType string, status task.TaskStatus, elapsed time.Duration) {
	m.TasksFinished.WithLabelValues(taskType, string(status)).Inc()
	m.TasksActive.WithLabelValues(taskType).Dec()
	m.TaskDuration.WithLabelValues(taskType, string(status)).Observe(elapsed.Seconds())
}

// ObserveTopic implements generation.TopicObserver.
func (m *Metrics) ObserveTopic(topic, outcome string, elapsed time.Duration) {
	m.TopicAttempts.WithLabelValues(topic, outcome).Inc()
	m.TopicDuration.WithLabelValues(topic).Observe(elapsed.Seconds())
}

// ObserveCache implements generation.CacheObserver.
func (m *Metrics) ObserveCache(tier string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(tier, result).Inc()
}

// RegisterQueueDepth exposes the task queue depth reported by fn.
func (m *Metrics) RegisterQueueDepth(fn func() int) {
	promauto.With(m.registry).NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "task_queue_depth",
			Help:      "Number of tasks waiting for a worker",
		},
		func() float64 { return float64(fn()) },
	)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
