// Package metrics exposes Prometheus counters for the lookup service.
package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "whois_requests_total",
		Help: "Lookup requests by TLD.",
	}, []string{"tld"})

	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "whois_cache_hits_total",
		Help: "Lookups served from the cache.",
	})

	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "whois_cache_misses_total",
		Help: "Lookups that went to the network.",
	})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "whois_errors_total",
		Help: "Failed lookups by error kind.",
	}, []string{"kind"})

	queryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "whois_request_duration_seconds",
		Help:    "Wall-clock lookup latency.",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
	})
)

// IncrementRequests counts a request against its domain's last label.
func IncrementRequests(domain string) {
	tld := "unknown"
	if i := strings.LastIndex(domain, "."); i >= 0 && i+1 < len(domain) {
		tld = strings.ToLower(domain[i+1:])
	}
	requestsTotal.WithLabelValues(tld).Inc()
}

// IncrementCacheHits counts a cache-served lookup.
func IncrementCacheHits() { cacheHitsTotal.Inc() }

// IncrementCacheMisses counts a network lookup.
func IncrementCacheMisses() { cacheMissesTotal.Inc() }

// IncrementErrors counts a failure by kind label.
func IncrementErrors(kind string) { errorsTotal.WithLabelValues(kind).Inc() }

// RecordQueryTime feeds the latency histogram.
func RecordQueryTime(ms int64) { queryDuration.Observe(float64(ms) / 1000.0) }

// Handler serves the Prometheus exposition endpoint.
func Handler() http.Handler { return promhttp.Handler() }
