package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the voice agent runtime
type Metrics struct {
	registry *prometheus.Registry

	// Conversation metrics
	TurnsTotal        *prometheus.CounterVec
	HandoffsTotal     *prometheus.CounterVec
	HandoffBacksTotal prometheus.Counter

	// Tool metrics
	ToolResultsTotal *prometheus.CounterVec

	// Reminder metrics
	AnnouncementsTotal         prometheus.Counter
	AnnouncementsDeferredTotal prometheus.Counter

	// Check-in metrics
	CheckInsTotal         prometheus.Counter
	CheckInsDroppedTotal  prometheus.Counter
	CheckInResponsesTotal prometheus.Counter
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		// Conversation metrics
		TurnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voice_agent_turns_total",
				Help: "Total number of user turns processed",
			},
			[]string{"role"},
		),
		HandoffsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voice_agent_handoffs_total",
				Help: "Total number of orchestrator-to-specialist handoffs",
			},
			[]string{"specialist"},
		),
		HandoffBacksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "voice_agent_handoff_backs_total",
				Help: "Total number of handoffs back to the orchestrator",
			},
		),

		// Tool metrics
		ToolResultsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voice_agent_tool_results_total",
				Help: "Total number of tool results received from the client",
			},
			[]string{"tool", "status"},
		),

		// Reminder metrics
		AnnouncementsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "voice_agent_announcements_total",
				Help: "Total number of reminder announcements delivered",
			},
		),
		AnnouncementsDeferredTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "voice_agent_announcements_deferred_total",
				Help: "Total number of announcements deferred by a handoff in progress",
			},
		),

		// Check-in metrics
		CheckInsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "voice_agent_checkins_total",
				Help: "Total number of emotion check-in questions asked",
			},
		),
		CheckInsDroppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "voice_agent_checkins_dropped_total",
				Help: "Total number of emotion events dropped while suppressed",
			},
		),
		CheckInResponsesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "voice_agent_checkin_responses_total",
				Help: "Total number of check-in answers captured",
			},
		),
	}

	// Register all metrics
	m.registerMetrics()

	return m
}

// registerMetrics registers all metrics with the registry
func (m *Metrics) registerMetrics() {
	// Conversation metrics
	m.registry.MustRegister(m.TurnsTotal)
	m.registry.MustRegister(m.HandoffsTotal)
	m.registry.MustRegister(m.HandoffBacksTotal)

	// Tool metrics
	m.registry.MustRegister(m.ToolResultsTotal)

	// Reminder metrics
	m.registry.MustRegister(m.AnnouncementsTotal)
	m.registry.MustRegister(m.AnnouncementsDeferredTotal)

	// Check-in metrics
	m.registry.MustRegister(m.CheckInsTotal)
	m.registry.MustRegister(m.CheckInsDroppedTotal)
	m.registry.MustRegister(m.CheckInResponsesTotal)
}

// Handler returns an HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
