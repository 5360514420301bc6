package metrics

import "github.com/prometheus/client_golang/prometheus"

// Query pipeline Prometheus metrics.
var (
	QueryCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "alfred",
			Name:      "query_cache_total",
			Help:      "Query cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	RouteDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "alfred",
			Name:      "route_decisions_total",
			Help:      "Routing decisions by route and origin",
		},
		[]string{"route", "origin"}, // origin: "advisor" / "fallback" / "no_collections"
	)

	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "alfred",
			Name:      "llm_requests_total",
			Help:      "Total number of LLM requests",
		},
		[]string{"kind", "model", "status"}, // kind: "generate" / "advise" / "embed"
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "alfred",
			Name:      "llm_request_duration_seconds",
			Help:      "LLM request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind", "model"},
	)

	RetrievalRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "alfred",
			Name:      "retrieval_requests_total",
			Help:      "Total number of vector index queries",
		},
		[]string{"collection", "status"},
	)
)

var queryMetricsRegistered bool

// RegisterQueryMetrics registers Prometheus query metrics. Must be called once from main.
func RegisterQueryMetrics() {
	if queryMetricsRegistered {
		return
	}
	prometheus.MustRegister(QueryCacheTotal)
	prometheus.MustRegister(RouteDecisionsTotal)
	prometheus.MustRegister(LLMRequestsTotal)
	prometheus.MustRegister(LLMRequestDuration)
	prometheus.MustRegister(RetrievalRequestsTotal)
	queryMetricsRegistered = true
}
