package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nregahub_sync_records_total",
		Help: "Records processed by the sync pipeline, by outcome.",
	}, []string{"outcome"})

	coercionFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nregahub_sync_coercion_fallbacks_total",
		Help: "Numeric values coerced to defaults (sentinels and parse failures).",
	})

	districtsSynthesized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nregahub_sync_districts_synthesized_total",
		Help: "Catalog entries created for bulk-feed districts the matcher could not place.",
	})
)
