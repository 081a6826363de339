package catalogapi

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	upstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_upstream_request_duration_seconds",
			Help:    "Duration of catalog API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op", "status"},
	)

	cacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_catalog_cache_total",
			Help: "Catalog cache lookups by result",
		},
		[]string{"kind", "result"},
	)
)

func observe(op, status string, start time.Time) {
	upstreamDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
}
