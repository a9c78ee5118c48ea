// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Discovery metrics
	RoundsTotal      prometheus.Counter
	WordsPerRound    prometheus.Gauge
	PatternsPerRound prometheus.Gauge
	DTWPairsTotal    prometheus.Counter
	MotifsFound      prometheus.Counter
	MotifsKept       prometheus.Counter
	ClustersFormed   prometheus.Gauge
	RoundDuration    prometheus.Histogram

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  *prometheus.HistogramVec
	ReportsGenerated  prometheus.Counter
	MessagesPublished *prometheus.CounterVec
	ActiveRuns        prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulPipeline prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "trip_motif_lab"
	}

	return &Metrics{
		// Discovery metrics
		RoundsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "rounds_total",
			Help:      "Total number of word-length rounds executed",
		}),
		WordsPerRound: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "words_last_round",
			Help:      "Number of words extracted in the most recent round",
		}),
		PatternsPerRound: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "repeated_patterns_last_round",
			Help:      "Number of patterns with at least two words in the most recent round",
		}),
		DTWPairsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "dtw_pairs_total",
			Help:      "Total number of DTW distances computed during resolution",
		}),
		MotifsFound: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "motifs_found_total",
			Help:      "Total number of motifs resolved",
		}),
		MotifsKept: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "motifs_kept_total",
			Help:      "Total number of motifs kept after redundancy pruning",
		}),
		ClustersFormed: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "clustering",
			Name:      "clusters_last_run",
			Help:      "Number of non-empty clusters in the most recent run",
		}),
		RoundDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "round_duration_seconds",
			Help:      "Duration of one word-length round in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Pipeline metrics
		PipelineRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline phase executions by status",
		}, []string{"phase", "status"}),
		PipelineDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline phase duration in seconds",
			Buckets:   []float64{0.1, 1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"phase"}),
		ReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "reports_generated_total",
			Help:      "Total number of report sets written",
		}),
		MessagesPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "messages_published_total",
			Help:      "Total number of result messages published by subject",
		}, []string{"subject"}),
		ActiveRuns: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "active_runs",
			Help:      "Number of runs currently executing",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulPipeline: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_pipeline_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRound records the outcome of one word-length round.
func RecordRound(words, repeatedPatterns, motifs, dtwPairs int, seconds float64) {
	DefaultMetrics.RoundsTotal.Inc()
	DefaultMetrics.WordsPerRound.Set(float64(words))
	DefaultMetrics.PatternsPerRound.Set(float64(repeatedPatterns))
	DefaultMetrics.MotifsFound.Add(float64(motifs))
	DefaultMetrics.DTWPairsTotal.Add(float64(dtwPairs))
	DefaultMetrics.RoundDuration.Observe(seconds)
}

// RecordPruned records the number of motifs kept by pruning.
func RecordPruned(kept int) {
	DefaultMetrics.MotifsKept.Add(float64(kept))
}

// RecordClusters sets the cluster gauge.
func RecordClusters(n int) {
	DefaultMetrics.ClustersFormed.Set(float64(n))
}

// RecordReport increments the reports generated counter.
func RecordReport() {
	DefaultMetrics.ReportsGenerated.Inc()
}

// RecordPublished increments the published messages counter for subject.
func RecordPublished(subject string) {
	DefaultMetrics.MessagesPublished.WithLabelValues(subject).Inc()
}

// RunStarted and RunFinished track the active runs gauge.
func RunStarted() {
	DefaultMetrics.ActiveRuns.Inc()
}

func RunFinished() {
	DefaultMetrics.ActiveRuns.Dec()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordPipelineRun records a pipeline phase.
func RecordPipelineRun(phase, status string, durationSeconds float64) {
	DefaultMetrics.PipelineRunsTotal.WithLabelValues(phase, status).Inc()
	DefaultMetrics.PipelineDuration.WithLabelValues(phase).Observe(durationSeconds)
}

// RecordPipelineSuccess stamps the last successful run.
func RecordPipelineSuccess(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulPipeline.Set(float64(unixSeconds))
}
