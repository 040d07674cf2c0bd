package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cylproj_jobs_processed_total",
		Help: "Total number of reprojection jobs processed, by status",
	}, []string{"status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cylproj_stage_duration_seconds",
		Help:    "Duration of reprojection pipeline stages",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
	}, []string{"stage"})

	FramesWarpedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cylproj_frames_warped_total",
		Help: "Total number of frames reprojected across all jobs",
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cylproj_active_workers",
		Help: "Number of currently active workers processing jobs",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cylproj_retry_total",
		Help: "Total number of retries",
	}, []string{"attempt"})
)
