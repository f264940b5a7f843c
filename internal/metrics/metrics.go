// Package metrics defines the Prometheus instruments for the
// generation pipeline. Metrics register with the default registry via
// promauto; exposing them is the embedding process's concern.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Submits counts submit calls by provider and outcome.
	Submits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sceneforge_submits_total",
			Help: "Total generation submit calls",
		},
		[]string{"provider", "outcome"}, // outcome: "ok", "error"
	)

	// Polls counts poll calls by provider.
	Polls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sceneforge_polls_total",
			Help: "Total generation poll calls",
		},
		[]string{"provider"},
	)

	// Fallbacks counts how often a unit fell through to another
	// provider, labeled by the provider that failed.
	Fallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sceneforge_fallbacks_total",
			Help: "Total provider fallbacks within a unit's attempt chain",
		},
		[]string{"from_provider", "reason"},
	)

	// Units counts terminal unit outcomes.
	Units = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sceneforge_units_total",
			Help: "Total units by terminal outcome",
		},
		[]string{"outcome"}, // "succeeded", "failed"
	)

	// GenerationSeconds observes wall time from first submit to
	// terminal result per unit, labeled by the provider that produced
	// the result.
	GenerationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sceneforge_generation_seconds",
			Help:    "Unit generation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
		[]string{"provider"},
	)
)
