// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Analysis sources
const (
	SourceCLI    = "cli"
	SourceServer = "server"
	SourceWorker = "worker"
)

var (
	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codeverse_analyses_total",
		Help: "Total analyses by source and outcome",
	}, []string{"source", "outcome"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "codeverse_analysis_duration_seconds",
		Help:    "Wall time of one analysis",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
	}, []string{"source"})

	FilesAnalyzed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codeverse_files_analyzed_total",
		Help: "Total files classified across all analyses",
	})

	LinksResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codeverse_links_resolved_total",
		Help: "Total dependency links resolved across all analyses",
	})

	CloneErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codeverse_clone_errors_total",
		Help: "Total failed repository clones by reason",
	}, []string{"reason"})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codeverse_analysis_cache_hits_total",
		Help: "Total analyze requests answered from the result cache",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codeverse_http_requests_total",
		Help: "Total HTTP requests by route and status",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "codeverse_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	QueueTargets = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "codeverse_queue_targets",
		Help: "Targets in the analysis queue by status",
	}, []string{"status"})
)

// ObserveAnalysis records one finished analysis
func ObserveAnalysis(source string, d time.Duration, files, links int, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	AnalysesTotal.WithLabelValues(source, outcome).Inc()
	AnalysisDuration.WithLabelValues(source).Observe(d.Seconds())
	if err == nil {
		FilesAnalyzed.Add(float64(files))
		LinksResolved.Add(float64(links))
	}
}

// SetQueueCounts replaces the queue gauge with counts
func SetQueueCounts(counts map[string]int64) {
	QueueTargets.Reset()
	for status, n := range counts {
		QueueTargets.WithLabelValues(status).Set(float64(n))
	}
}
