package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics del motor de sincronización. Paquete standalone para
// evitar ciclos de import entre coordinator, reconcile y el server de debug.

var (
	FetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crewsync_fetch_total",
		Help: "Fetches por tenant y resultado (ok|error|unauthorized)",
	}, []string{"tenant", "outcome"})

	FetchLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "crewsync_fetch_latency_ms",
		Help:    "Latencia de fetch por tenant en milisegundos",
		Buckets: prometheus.ExponentialBuckets(10, 2, 10),
	})

	CacheReads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crewsync_cache_reads_total",
		Help: "Lecturas de cache por estado (fresh|stale|miss)",
	}, []string{"state"})

	SupersededCompletions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crewsync_superseded_completions_total",
		Help: "Completions descartadas por el guard de generación",
	})

	ReconcileTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crewsync_reconcile_total",
		Help: "Reconciliaciones por resultado (synced|throttled|skipped|failed)",
	}, []string{"outcome"})
)

// Register registra las métricas en el registry dado (o el default si es nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	collectors := []prometheus.Collector{
		FetchTotal,
		FetchLatency,
		CacheReads,
		SupersededCompletions,
		ReconcileTotal,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
