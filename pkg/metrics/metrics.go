package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	DocumentReads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docserve", Name: "document_reads_total", Help: "Number of successful document reads by serving source."},
		[]string{"source"},
	)
	DocumentWrites = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "docserve", Name: "document_writes_total", Help: "Number of durably acknowledged document writes."},
	)
	CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "docserve", Name: "cache_misses_total", Help: "Number of cache lookups that missed."},
	)
	CacheErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docserve", Name: "cache_errors_total", Help: "Number of absorbed cache failures by operation."},
		[]string{"op"},
	)
	StoreErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docserve", Name: "store_errors_total", Help: "Number of durable store failures by operation."},
		[]string{"op"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docserve", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docserve", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(DocumentReads)
	reg.MustRegister(DocumentWrites)
	reg.MustRegister(CacheMisses)
	reg.MustRegister(CacheErrors)
	reg.MustRegister(StoreErrors)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
