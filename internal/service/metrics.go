package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	turnKindRoot         = "root"
	turnKindContinuation = "continuation"

	turnOutcomeGenerated      = "generated"
	turnOutcomeReused         = "reused"
	turnOutcomeProgressFailed = "progress_failed"
	turnOutcomeFailed         = "failed"
)

var (
	turnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "story_turns_total",
			Help: "Total number of resolved turns by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
	turnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "story_turn_duration_seconds",
			Help:    "Histogram of turn resolution durations.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"kind"},
	)
)
