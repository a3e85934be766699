// internal/common/metrics/metrics.go
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

var (
	ScoresCalculated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yecs_scores_calculated_total",
			Help: "Total number of YECS scores calculated, by risk level",
		},
		[]string{"risk_level"},
	)

	CompositeScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "yecs_composite_score",
			Help:    "Distribution of calculated YECS composite scores",
			Buckets: prometheus.LinearBuckets(300, 50, 12),
		},
	)

	BiasAudits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yecs_bias_audits_total",
			Help: "Total number of bias audits, by outcome",
		},
		[]string{"bias_detected"},
	)

	FlaggedGroups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yecs_flagged_groups_total",
			Help: "Total number of demographic groups flagged by bias audits",
		},
		[]string{"attribute"},
	)

	Mitigations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yecs_mitigations_total",
			Help: "Total number of bias mitigation runs, by method",
		},
		[]string{"method"},
	)
)

// RecordScore records one composite score.
func RecordScore(riskLevel string, score int) {
	ScoresCalculated.WithLabelValues(riskLevel).Inc()
	CompositeScore.Observe(float64(score))
}

// RecordAudit records one audit and its flagged groups per attribute.
func RecordAudit(biasDetected bool, flaggedByAttribute map[string]int) {
	BiasAudits.WithLabelValues(strconv.FormatBool(biasDetected)).Inc()
	for attr, n := range flaggedByAttribute {
		if n > 0 {
			FlaggedGroups.WithLabelValues(attr).Add(float64(n))
		}
	}
}
