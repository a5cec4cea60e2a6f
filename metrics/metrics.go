package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	LocationsReceived   *prometheus.CounterVec
	GeofenceTransitions *prometheus.CounterVec
	ProximityAlerts     *prometheus.CounterVec
	AlertsSuppressed    prometheus.Counter
	MalformedLocations  prometheus.Counter
	EventsConsumed      *prometheus.CounterVec
	ReportsSubmitted    prometheus.Counter
	WizardRejections    *prometheus.CounterVec
	TrackerSessions     prometheus.Gauge
	EventFeedErrors     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		LocationsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "openrelief_locations_received_total",
			Help: "Tracker location updates received, by outcome.",
		}, []string{"outcome"}),
		GeofenceTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "openrelief_geofence_transitions_total",
			Help: "Geofence enter/exit transitions detected.",
		}, []string{"action"}),
		ProximityAlerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "openrelief_proximity_alerts_total",
			Help: "Proximity alerts raised, by target type and severity.",
		}, []string{"target_type", "severity"}),
		AlertsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "openrelief_proximity_alerts_suppressed_total",
			Help: "Proximity alerts suppressed because the target was already in range.",
		}),
		MalformedLocations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "openrelief_malformed_event_locations_total",
			Help: "Emergency events skipped because their location could not be parsed.",
		}),
		EventsConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "openrelief_events_consumed_total",
			Help: "Emergency event feed messages consumed, by operation.",
		}, []string{"op"}),
		ReportsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "openrelief_reports_submitted_total",
			Help: "Emergency reports submitted through the wizard.",
		}),
		WizardRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "openrelief_wizard_rejections_total",
			Help: "Wizard navigation or submission attempts blocked by validation, by step.",
		}, []string{"step"}),
		TrackerSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "openrelief_tracker_sessions",
			Help: "Trackers with live in-memory state.",
		}),
		EventFeedErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "openrelief_event_feed_errors_total",
			Help: "Emergency event feed fetch/commit failures, by operation.",
		}, []string{"op"}),
	}

	m.registry.MustRegister(
		m.LocationsReceived,
		m.GeofenceTransitions,
		m.ProximityAlerts,
		m.AlertsSuppressed,
		m.MalformedLocations,
		m.EventsConsumed,
		m.ReportsSubmitted,
		m.WizardRejections,
		m.TrackerSessions,
		m.EventFeedErrors,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
