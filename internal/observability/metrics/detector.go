package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DetectorMetrics contains Prometheus metrics for model inference.
type DetectorMetrics struct {
	inferenceTotal    *prometheus.CounterVec
	inferenceDuration prometheus.Histogram
	rawDetections     prometheus.Histogram
}

// NewDetectorMetrics creates and registers detector metrics.
func NewDetectorMetrics(registry *prometheus.Registry) (*DetectorMetrics, error) {
	m := &DetectorMetrics{
		inferenceTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "detector_inference_total",
				Help: "Total detector invocations by backend and status",
			},
			[]string{"backend", "status"}, // backend: onnx, tflite
		),
		inferenceDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "detector_inference_duration_seconds",
				Help:    "Detector invocation wall time",
				Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount10),
			},
		),
		rawDetections: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "detector_raw_detections",
				Help:    "Raw detections returned per invocation",
				Buckets: prometheus.LinearBuckets(0, 2, 11),
			},
		),
	}

	collectors := []prometheus.Collector{
		m.inferenceTotal,
		m.inferenceDuration,
		m.rawDetections,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordInference records one detector invocation.
func (m *DetectorMetrics) RecordInference(backend, status string, duration time.Duration, detections int) {
	m.inferenceTotal.WithLabelValues(backend, status).Inc()
	m.inferenceDuration.Observe(duration.Seconds())
	if status == StatusSuccess {
		m.rawDetections.Observe(float64(detections))
	}
}
