// Package metrics exposes Prometheus counters for the crawl pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RunsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scopelens_runs_started_total",
		Help: "Total crawl runs started",
	})
	RunsFinished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scopelens_runs_finished_total",
		Help: "Total crawl runs finished, by terminal status",
	}, []string{"status"})
	RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scopelens_run_duration_seconds",
		Help:    "Crawl run duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	PostsFetched = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scopelens_posts_fetched_total",
		Help: "Total posts returned by the crawl provider",
	})
	PostsEnriched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scopelens_posts_enriched_total",
		Help: "Total enrichment outcomes, by result",
	}, []string{"result"})
	AlertsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scopelens_alerts_created_total",
		Help: "Total alerts persisted, by category",
	}, []string{"category"})
	ProviderRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scopelens_provider_retries_total",
		Help: "Total provider retry attempts",
	}, []string{"provider"})
)

func init() {
	prometheus.MustRegister(RunsStarted, RunsFinished, RunDuration, PostsFetched, PostsEnriched, AlertsCreated, ProviderRetries)
}

// ObserveRunDuration records a run duration from its start time.
func ObserveRunDuration(start time.Time) {
	RunDuration.Observe(time.Since(start).Seconds())
}

// IncProviderRetry increments the retry counter for a provider.
func IncProviderRetry(provider string) { ProviderRetries.WithLabelValues(provider).Inc() }
