package manager

import "github.com/prometheus/client_golang/prometheus"

var (
	reconcileTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "runtimed",
			Subsystem: "manager",
			Name:      "reconcile_total",
			Help:      "Total reconciliations by outcome and action",
		},
		[]string{"outcome", "action"},
	)

	reconcileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "runtimed",
			Subsystem: "manager",
			Name:      "reconcile_duration_seconds",
			Help:      "Duration of reconciliations in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	pullProgress = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "runtimed",
			Subsystem: "manager",
			Name:      "pull_progress_percent",
			Help:      "Aggregate progress of the current image pull",
		},
	)

	runtimePort = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "runtimed",
			Subsystem: "manager",
			Name:      "runtime_port",
			Help:      "Host port bound by the runtime container, 0 when not ready",
		},
	)
)

func init() {
	prometheus.MustRegister(reconcileTotal, reconcileDuration, pullProgress, runtimePort)
}

func observeEvent(e Event) {
	switch e.Status {
	case PullStarted, PullDownloading, PullCompleted:
		if e.Progress != nil {
			pullProgress.Set(float64(*e.Progress))
		}
	}
}
