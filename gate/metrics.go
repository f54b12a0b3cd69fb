package gate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DeniedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edgegate_denied_requests_total",
			Help: "Requests denied by an access gate, by route and reason",
		},
		[]string{"route", "reason"},
	)

	AdmittedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edgegate_admitted_requests_total",
			Help: "Requests that passed every check on a gated route",
		},
		[]string{"route"},
	)

	GeoLookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "edgegate_geo_lookup_duration_seconds",
			Help: "Latency of upstream geolocation lookups",
		},
	)
)
