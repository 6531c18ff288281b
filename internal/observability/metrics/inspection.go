package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// InspectionMetrics contains Prometheus metrics for inspection jobs.
type InspectionMetrics struct {
	inspectionsTotal       *prometheus.CounterVec
	detectionsTotal        *prometheus.CounterVec
	processingErrorsTotal  *prometheus.CounterVec
	inspectionDuration     *prometheus.HistogramVec
	frameProcessingSeconds prometheus.Histogram
	defectDensity          prometheus.Histogram
}

// NewInspectionMetrics creates and registers inspection metrics.
func NewInspectionMetrics(registry *prometheus.Registry) (*InspectionMetrics, error) {
	m := &InspectionMetrics{
		inspectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inspection_jobs_total",
				Help: "Total number of inspection jobs by kind and verdict status",
			},
			[]string{"kind", "status"}, // kind: image, batch_item, video
		),
		detectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inspection_detections_total",
				Help: "Total number of defect detections by class",
			},
			[]string{"class"},
		),
		processingErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inspection_processing_errors_total",
				Help: "Total number of per-item processing errors",
			},
			[]string{"kind"},
		),
		inspectionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "inspection_duration_seconds",
				Help:    "End to end duration of inspection jobs",
				Buckets: prometheus.ExponentialBuckets(BucketStart100ms, BucketFactor2, BucketCount10),
			},
			[]string{"kind"},
		),
		frameProcessingSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "inspection_frame_processing_seconds",
				Help:    "Per sampled frame processing time in video jobs",
				Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount10),
			},
		),
		defectDensity: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "inspection_defect_density",
				Help:    "Defect frame density of completed video jobs",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
		),
	}

	collectors := []prometheus.Collector{
		m.inspectionsTotal,
		m.detectionsTotal,
		m.processingErrorsTotal,
		m.inspectionDuration,
		m.frameProcessingSeconds,
		m.defectDensity,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordInspection counts one completed inspection.
func (m *InspectionMetrics) RecordInspection(kind, status string, duration time.Duration) {
	m.inspectionsTotal.WithLabelValues(kind, status).Inc()
	m.inspectionDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordDetection counts one defect detection by class label.
func (m *InspectionMetrics) RecordDetection(class string) {
	m.detectionsTotal.WithLabelValues(class).Inc()
}

// RecordProcessingError counts a per-item processing failure.
func (m *InspectionMetrics) RecordProcessingError(kind string) {
	m.processingErrorsTotal.WithLabelValues(kind).Inc()
}

// ObserveFrameProcessing records the processing time of one sampled frame.
func (m *InspectionMetrics) ObserveFrameProcessing(duration time.Duration) {
	m.frameProcessingSeconds.Observe(duration.Seconds())
}

// ObserveDefectDensity records the defect density of a video job.
func (m *InspectionMetrics) ObserveDefectDensity(density float64) {
	m.defectDensity.Observe(density)
}
