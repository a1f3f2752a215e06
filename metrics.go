package staleserve

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "staleserve_requests_total",
			Help: "Total number of requests handled by the cache, by outcome",
		},
		[]string{"outcome", "store"},
	)

	entriesEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "staleserve_evictions_total",
			Help: "Total number of expired entries removed by the janitor",
		},
	)
)
