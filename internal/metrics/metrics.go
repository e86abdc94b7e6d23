// README: Prometheus collectors for ingestion, broadcast, and sweep observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PositionsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleetwatch_positions_accepted_total",
		Help: "Position reports accepted and applied.",
	})

	PositionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetwatch_positions_rejected_total",
		Help: "Position reports rejected before any state mutation.",
	}, []string{"reason"}) // reason: validation, unauthorized, store

	BroadcastsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetwatch_broadcasts_total",
		Help: "Messages published to a channel (one per publish, not per recipient).",
	}, []string{"channel"})

	DroppedDeliveries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleetwatch_dropped_deliveries_total",
		Help: "Per-session deliveries dropped because the session buffer was full.",
	})

	SessionsConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fleetwatch_sessions_connected",
		Help: "Live transport sessions currently registered.",
	})

	OfflineTransitions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleetwatch_offline_transitions_total",
		Help: "Reporters transitioned to offline by the presence sweeper.",
	})

	SweepErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleetwatch_sweep_errors_total",
		Help: "Per-reporter failures during presence sweeps.",
	})

	SweepLastRun = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fleetwatch_sweep_last_run_timestamp_seconds",
		Help: "Unix time the presence sweeper last completed a cycle.",
	})

	AlertsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleetwatch_alerts_created_total",
		Help: "Emergency alerts created and broadcast.",
	})

	AlertPersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleetwatch_alert_persist_failures_total",
		Help: "Alerts whose persistence failed after bounded retries (durability warning).",
	})

	HistoryPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleetwatch_history_pruned_total",
		Help: "Position history rows deleted by the retention sweeper.",
	})

	AlertsArchived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleetwatch_alerts_archived_total",
		Help: "Resolved alerts deleted by the retention sweeper.",
	})
)
