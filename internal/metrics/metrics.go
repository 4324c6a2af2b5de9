// Package metrics exposes Prometheus counters and gauges for the
// simulator's hot paths (connection accept/refuse, command dispatch,
// tick duration, active monitor subscriptions). It is grounded on the
// ecosystem-standard prometheus/client_golang usage referenced in the
// retrieval pack's ocx-backend manifest; the simulator's own Non-goals
// exclude container orchestration and logging sinks, not metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ConnectionsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "devicesim_connections_accepted_total",
		Help: "Connections accepted by the server.",
	})
	ConnectionsRefused = promauto.NewCounter(prometheus.CounterOpts{
		Name: "devicesim_connections_refused_total",
		Help: "Connections refused because MAX_CLIENTS was reached.",
	})
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "devicesim_commands_total",
		Help: "Commands processed, by verb.",
	}, []string{"verb"})
	WritesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "devicesim_writes_rejected_total",
		Help: "PUT/MOVE requests rejected as out-of-range or read-only.",
	})
	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "devicesim_tick_duration_seconds",
		Help:    "Wall-clock duration of one registry Update call.",
		Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
	})
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "devicesim_active_sessions",
		Help: "Currently open client sessions.",
	})
	ActiveMonitors = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "devicesim_active_monitors",
		Help: "Sessions with an active MONITOR subscription.",
	})
)

// Serve starts the opt-in debug listener the supervisor launches when a
// metrics address is configured. It runs on its own goroutine since
// net/http's server loop is independent of the simulator's single-
// threaded registry/session loop — no simulator state is reachable from
// a metrics handler.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
