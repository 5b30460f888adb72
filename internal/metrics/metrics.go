// Package metrics exposes Prometheus instrumentation for the capability
// dispatch and aggregation paths. Counters are package-level promauto
// values so instrumented packages can record without carrying a handle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "navi_dispatches_total",
		Help: "Total number of capability dispatches by provider, capability and outcome.",
	}, []string{"provider", "capability", "outcome"})

	cacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "navi_cache_lookups_total",
		Help: "Total number of aggregator cache lookups by level and result.",
	}, []string{"level", "result"})

	providerFetchFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "navi_provider_fetch_failures_total",
		Help: "Total number of per-provider fetch failures absorbed by the aggregator.",
	}, []string{"provider"})

	tokenRefreshesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "navi_token_refreshes_total",
		Help: "Total number of token refresh attempts by provider and outcome.",
	}, []string{"provider", "outcome"})
)

// Outcome labels used across counters.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// RecordDispatch counts one capability dispatch.
func RecordDispatch(provider, capability string, success bool) {
	outcome := OutcomeFailure
	if success {
		outcome = OutcomeSuccess
	}
	dispatchesTotal.WithLabelValues(provider, capability, outcome).Inc()
}

// RecordCacheLookup counts one aggregator cache lookup. Level is
// "merged" or "provider"; hit indicates whether a fresh entry was found.
func RecordCacheLookup(level string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookupsTotal.WithLabelValues(level, result).Inc()
}

// RecordProviderFetchFailure counts one absorbed per-provider fetch failure.
func RecordProviderFetchFailure(provider string) {
	providerFetchFailuresTotal.WithLabelValues(provider).Inc()
}

// RecordTokenRefresh counts one refresh attempt.
func RecordTokenRefresh(provider string, success bool) {
	outcome := OutcomeFailure
	if success {
		outcome = OutcomeSuccess
	}
	tokenRefreshesTotal.WithLabelValues(provider, outcome).Inc()
}
