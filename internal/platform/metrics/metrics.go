package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ConnectionState = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "huddle_connection_state",
		Help: "Current realtime connection state (0 disconnected, 1 connecting, 2 connected, 3 errored).",
	})
	ConnectAttempts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "huddle_connect_attempts_total",
		Help: "Realtime connect attempts.",
	})
	AuthFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "huddle_auth_failures_total",
		Help: "Channel authorization failures.",
	})
	EventsDelivered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "huddle_events_delivered_total",
		Help: "Envelopes delivered to at least one listener.",
	}, []string{"event_type"})
	EventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "huddle_events_dropped_total",
		Help: "Envelopes with no registered listener.",
	})
	MutationsApplied = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "huddle_mutations_applied_total",
		Help: "Optimistic mutations published to render state.",
	})
	MutationsRolledBack = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "huddle_mutations_rolled_back_total",
		Help: "Optimistic mutations reverted after confirm failure.",
	})
)

func Register() {
	prometheus.MustRegister(
		ConnectionState,
		ConnectAttempts,
		AuthFailures,
		EventsDelivered,
		EventsDropped,
		MutationsApplied,
		MutationsRolledBack,
	)
}
