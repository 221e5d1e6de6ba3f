// Copyright © 2024 The ELPS authors

package mro

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "perlmro_linearization_cache_hits_total",
		Help: "Linearizations served from the cache",
	})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "perlmro_linearization_cache_misses_total",
		Help: "Linearization cache lookups which required a computation",
	})
	cacheInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "perlmro_linearization_cache_invalidations_total",
		Help: "Times the linearization cache was cleared",
	})
	linearizeSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "perlmro_linearize_duration_seconds",
		Help:    "Time spent computing a linearization",
		Buckets: prometheus.DefBuckets,
	}, []string{"algorithm"})
	resolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "perlmro_resolve_total",
		Help: "Callable resolutions by outcome",
	}, []string{"outcome"})
)
