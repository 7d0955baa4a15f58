package metrics

import (
	"net/http"
	"time"

	"LectureBot/bot/chat"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lecturebot"

// Metrics holds the bot's Prometheus collectors. A nil *Metrics is a no-op.
type Metrics struct {
	registry  *prometheus.Registry
	handler   http.Handler
	messages  *prometheus.CounterVec
	commands  *prometheus.CounterVec
	workflows *prometheus.CounterVec
	expired   prometheus.Counter
	aiTotal   *prometheus.CounterVec
	aiLatency *prometheus.HistogramVec
	sections  *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "incoming_messages_total",
			Help:      "Incoming transport messages and events by kind",
		}, []string{"kind"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands handled by name",
		}, []string{"command"}),
		workflows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflows_completed_total",
			Help:      "Conversations completed by workflow",
		}, []string{"workflow"}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_expired_total",
			Help:      "Sessions dropped after the idle timeout",
		}),
		aiTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_requests_total",
			Help:      "Generative model calls by provider and outcome",
		}, []string{"provider", "outcome"}),
		aiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ai_request_duration_seconds",
			Help:      "Latency of generative model calls",
			Buckets:   []float64{.25, .5, 1, 2, 4, 8, 16, 32},
		}, []string{"provider"}),
		sections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "section_setups_total",
			Help:      "Section folder provisioning results",
		}, []string{"status"}),
	}

	registry.MustRegister(
		m.messages, m.commands, m.workflows, m.expired, m.aiTotal, m.aiLatency, m.sections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *Metrics) MessageReceived(kind string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(kind).Inc()
}

func (m *Metrics) CommandHandled(name string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(name).Inc()
}

func (m *Metrics) WorkflowCompleted(id chat.WorkflowID) {
	if m == nil {
		return
	}
	m.workflows.WithLabelValues(string(id)).Inc()
}

func (m *Metrics) SessionExpired() {
	if m == nil {
		return
	}
	m.expired.Inc()
}

func (m *Metrics) AIRequest(provider, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.aiTotal.WithLabelValues(provider, outcome).Inc()
	if elapsed > 0 {
		m.aiLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
	}
}

func (m *Metrics) SectionProvisioned(status string) {
	if m == nil {
		return
	}
	m.sections.WithLabelValues(status).Inc()
}

var _ chat.EngineListener = (*Metrics)(nil)
