package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every collector exported at /metrics.
var Registry = prometheus.NewRegistry()

var (
	factory = promauto.With(Registry)

	analysisStartedTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "analysis_started_total",
		Help: "Total analyses submitted to the analysis endpoint",
	})
	analysisCompletedTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "analysis_completed_total",
		Help: "Total analyses that delivered a terminal result set",
	})
	analysisFailedTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "analysis_failed_total",
		Help: "Total analyses that ended in an error, by error code",
	}, []string{"code"})
	staleEventsTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "analysis_stale_events_total",
		Help: "Stream events discarded because a newer submission superseded their stream",
	})
	progressPercent = factory.NewGauge(prometheus.GaugeOpts{
		Name: "analysis_progress_percent",
		Help: "Progress of the in-flight analysis",
	})
	analysisDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "analysis_duration_ms",
		Help:    "Analysis duration in milliseconds",
		Buckets: []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 300000},
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// IncAnalysisStarted increments the started counter.
func IncAnalysisStarted() {
	analysisStartedTotal.Inc()
}

// IncAnalysisCompleted increments the completed counter.
func IncAnalysisCompleted() {
	analysisCompletedTotal.Inc()
}

// IncAnalysisFailed increments the failed counter for code.
func IncAnalysisFailed(code string) {
	if code == "" {
		code = "unknown"
	}
	analysisFailedTotal.WithLabelValues(code).Inc()
}

// IncStaleEvents counts a discarded event from a superseded stream.
func IncStaleEvents() {
	staleEventsTotal.Inc()
}

// SetProgress records the latest progress percentage.
func SetProgress(percent int) {
	progressPercent.Set(float64(percent))
}

// ObserveAnalysisDurationMs records an analysis duration in milliseconds.
func ObserveAnalysisDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	analysisDuration.Observe(value)
}

// ObserveAnalysisDuration records the time elapsed since start.
func ObserveAnalysisDuration(start time.Time) {
	ObserveAnalysisDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
