package collections

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	createShardTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strata_createshard_total",
		Help: "Shard-create saga outcomes, labeled by result kind.",
	}, []string{"outcome"})

	convergenceWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "strata_convergence_wait_seconds",
		Help:    "Time spent waiting for a shard-create mutation to become visible in the cached cluster-state view.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})
)
