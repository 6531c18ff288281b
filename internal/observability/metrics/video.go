package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// VideoMetrics contains Prometheus metrics for the encoding pipeline.
type VideoMetrics struct {
	encodeCandidatesTotal *prometheus.CounterVec
	transcodeTotal        *prometheus.CounterVec
	encodeDuration        prometheus.Histogram
	framesWrittenTotal    prometheus.Counter
}

// NewVideoMetrics creates and registers video pipeline metrics.
func NewVideoMetrics(registry *prometheus.Registry) (*VideoMetrics, error) {
	m := &VideoMetrics{
		encodeCandidatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "video_encode_candidates_total",
				Help: "Encoder candidate probe outcomes by codec",
			},
			[]string{"codec", "status"}, // status: selected, failed
		),
		transcodeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "video_transcode_total",
				Help: "Web-optimize transcode pass outcomes",
			},
			[]string{"status"}, // success, error, timeout
		),
		encodeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "video_encode_duration_seconds",
				Help:    "Wall time of the annotated video encode",
				Buckets: prometheus.ExponentialBuckets(BucketStart100ms, BucketFactor2, BucketCount10),
			},
		),
		framesWrittenTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "video_frames_written_total",
				Help: "Total frames written to annotated output videos",
			},
		),
	}

	collectors := []prometheus.Collector{
		m.encodeCandidatesTotal,
		m.transcodeTotal,
		m.encodeDuration,
		m.framesWrittenTotal,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordCandidate counts one encoder candidate probe outcome.
func (m *VideoMetrics) RecordCandidate(codec, status string) {
	m.encodeCandidatesTotal.WithLabelValues(codec, status).Inc()
}

// RecordTranscode counts one transcode pass outcome.
func (m *VideoMetrics) RecordTranscode(status string) {
	m.transcodeTotal.WithLabelValues(status).Inc()
}

// ObserveEncodeDuration records the encode wall time.
func (m *VideoMetrics) ObserveEncodeDuration(duration time.Duration) {
	m.encodeDuration.Observe(duration.Seconds())
}

// AddFramesWritten counts frames written to the output stream.
func (m *VideoMetrics) AddFramesWritten(n int) {
	m.framesWrittenTotal.Add(float64(n))
}
