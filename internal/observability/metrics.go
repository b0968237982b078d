package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fitcoach"

type Metrics struct {
	registry *prometheus.Registry

	apiRequests   *prometheus.CounterVec
	apiLatency    *prometheus.HistogramVec
	apiInflight   prometheus.Gauge
	llmRequests   *prometheus.CounterVec
	llmLatency    *prometheus.HistogramVec
	generations   *prometheus.CounterVec
	chatMessages  *prometheus.CounterVec
	storageResets prometheus.Counter
	checkIns      prometheus.Counter
	metricEntries prometheus.Counter
}

var (
	currentMu sync.RWMutex
	current   *Metrics
)

// Current returns the metrics installed by Init, or nil.
func Current() *Metrics {
	currentMu.RLock()
	defer currentMu.RUnlock()
	return current
}

// Init builds a fresh registry and installs it as Current.
func Init() *Metrics {
	m := New()
	currentMu.Lock()
	current = m
	currentMu.Unlock()
	return m
}

// New builds metrics on a private registry without installing them.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "HTTP requests currently being served.",
		}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "requests_total",
			Help:      "Provider calls by model, endpoint and status.",
		}, []string{"model", "endpoint", "status"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "request_duration_seconds",
			Help:      "Provider call latency including retries.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"model", "endpoint"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coach",
			Name:      "plan_generations_total",
			Help:      "Plan generation attempts by outcome.",
		}, []string{"outcome"}),
		chatMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coach",
			Name:      "chat_messages_total",
			Help:      "Consultant messages by outcome.",
		}, []string{"outcome"}),
		storageResets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "corruption_resets_total",
			Help:      "Origins whose persisted state was discarded because it failed to parse.",
		}),
		checkIns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coach",
			Name:      "checkins_total",
			Help:      "New daily check-ins recorded.",
		}),
		metricEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coach",
			Name:      "body_metrics_total",
			Help:      "Body metric snapshots recorded.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.llmRequests, m.llmLatency,
		m.generations, m.chatMessages, m.storageResets, m.checkIns, m.metricEntries,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m != nil {
		m.apiInflight.Inc()
	}
}

func (m *Metrics) ApiInflightDec() {
	if m != nil {
		m.apiInflight.Dec()
	}
}

func (m *Metrics) ObserveLLMRequest(model, endpoint, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if model == "" {
		model = "unknown"
	}
	m.llmRequests.WithLabelValues(model, endpoint, status).Inc()
	m.llmLatency.WithLabelValues(model, endpoint).Observe(dur.Seconds())
}

// IncPlanGeneration records a generation outcome: "ok", "invalid", "failed".
func (m *Metrics) IncPlanGeneration(outcome string) {
	if m != nil {
		m.generations.WithLabelValues(outcome).Inc()
	}
}

// IncChatMessage records a consultant outcome: "ok", "substituted", "failed".
func (m *Metrics) IncChatMessage(outcome string) {
	if m != nil {
		m.chatMessages.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncStorageReset() {
	if m != nil {
		m.storageResets.Inc()
	}
}

func (m *Metrics) IncCheckIn() {
	if m != nil {
		m.checkIns.Inc()
	}
}

func (m *Metrics) IncBodyMetric() {
	if m != nil {
		m.metricEntries.Inc()
	}
}
