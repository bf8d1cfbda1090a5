// internal/metrics/metrics.go

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tagpulse_analysis_duration_seconds",
			Help:    "Duration of batch analyses in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	AnalysisErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagpulse_analysis_errors_total",
			Help: "Total number of analyses that failed to load their input",
		},
		[]string{"kind"},
	)

	ItemsAnalyzed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tagpulse_items_analyzed_total",
			Help: "Total number of items fed to the trend engine",
		},
	)

	CommentsAnalyzed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tagpulse_comments_analyzed_total",
			Help: "Total number of comments fed to the thread analyzer",
		},
	)

	ViralChainsFound = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tagpulse_viral_chains_total",
			Help: "Total number of viral chains detected",
		},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tagpulse_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagpulse_websocket_clients",
			Help: "Current number of connected analysis stream clients",
		},
	)
)

// Analysis kinds
const (
	KindTrending = "trending"
	KindThread   = "thread"
)

// RecordTrending records one trend engine pass.
func RecordTrending(duration time.Duration, items int, err error) {
	AnalysisDuration.WithLabelValues(KindTrending).Observe(duration.Seconds())
	if err != nil {
		AnalysisErrors.WithLabelValues(KindTrending).Inc()
		return
	}
	ItemsAnalyzed.Add(float64(items))
}

// RecordThread records one comment analysis pass.
func RecordThread(duration time.Duration, comments, chains int, err error) {
	AnalysisDuration.WithLabelValues(KindThread).Observe(duration.Seconds())
	if err != nil {
		AnalysisErrors.WithLabelValues(KindThread).Inc()
		return
	}
	CommentsAnalyzed.Add(float64(comments))
	ViralChainsFound.Add(float64(chains))
}

// RecordAPIRequest records a served HTTP request.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}
