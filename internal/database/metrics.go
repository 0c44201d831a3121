package database

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var nodeCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "story_node_cache_total",
		Help: "Story node cache lookups and writes by operation and result.",
	},
	[]string{"op", "result"},
)
