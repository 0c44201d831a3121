package generation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "story_generation_requests_total",
			Help: "Total number of requests to the generation collaborator.",
		},
		[]string{"provider", "model", "status"},
	)
	generationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "story_generation_duration_seconds",
			Help:    "Histogram of generation request durations.",
			Buckets: []float64{0.5, 1, 2, 4, 8, 15, 30, 60, 120},
		},
		[]string{"provider", "model"},
	)
	generationPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "story_generation_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(100, 100, 15), // 100, 200, ..., 1500
		},
		[]string{"model"},
	)
)
