package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DiskManagerMetrics contains Prometheus metrics for retention sweeps.
type DiskManagerMetrics struct {
	diskUsageBytes            prometheus.Gauge
	diskTotalBytes            prometheus.Gauge
	diskUtilizationPercentage prometheus.Gauge

	cleanupOperationsTotal *prometheus.CounterVec
	filesDeletedTotal      *prometheus.CounterVec
	bytesFreedTotal        *prometheus.CounterVec
	cleanupDurationSeconds *prometheus.HistogramVec
	filesProcessedTotal    *prometheus.CounterVec
}

// NewDiskManagerMetrics creates and registers retention sweep metrics.
func NewDiskManagerMetrics(registry *prometheus.Registry) (*DiskManagerMetrics, error) {
	m := &DiskManagerMetrics{
		diskUsageBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "diskmanager_disk_usage_bytes",
			Help: "Current disk usage in bytes",
		}),
		diskTotalBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "diskmanager_disk_total_bytes",
			Help: "Total disk space in bytes",
		}),
		diskUtilizationPercentage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "diskmanager_disk_utilization_percentage",
			Help: "Current disk utilization as a percentage",
		}),
		cleanupOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "diskmanager_cleanup_operations_total",
				Help: "Total number of cleanup operations performed",
			},
			[]string{"policy"},
		),
		filesDeletedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "diskmanager_files_deleted_total",
				Help: "Total number of files deleted by cleanup operations",
			},
			[]string{"policy"},
		),
		bytesFreedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "diskmanager_bytes_freed_total",
				Help: "Total bytes freed by cleanup operations",
			},
			[]string{"policy"},
		),
		cleanupDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "diskmanager_cleanup_duration_seconds",
				Help:    "Time taken for cleanup operations",
				Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount10),
			},
			[]string{"policy"},
		),
		filesProcessedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "diskmanager_files_processed_total",
				Help: "Total number of files processed during cleanup",
			},
			[]string{"policy", "action"}, // action: deleted, error
		),
	}

	collectors := []prometheus.Collector{
		m.diskUsageBytes,
		m.diskTotalBytes,
		m.diskUtilizationPercentage,
		m.cleanupOperationsTotal,
		m.filesDeletedTotal,
		m.bytesFreedTotal,
		m.cleanupDurationSeconds,
		m.filesProcessedTotal,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordDiskUsage updates the disk usage gauges.
func (m *DiskManagerMetrics) RecordDiskUsage(used, total uint64, percent float64) {
	m.diskUsageBytes.Set(float64(used))
	m.diskTotalBytes.Set(float64(total))
	m.diskUtilizationPercentage.Set(percent)
}

// RecordCleanup records the outcome of one retention sweep.
func (m *DiskManagerMetrics) RecordCleanup(policy string, filesDeleted int, bytesFreed int64, duration time.Duration) {
	m.cleanupOperationsTotal.WithLabelValues(policy).Inc()
	m.filesDeletedTotal.WithLabelValues(policy).Add(float64(filesDeleted))
	m.bytesFreedTotal.WithLabelValues(policy).Add(float64(bytesFreed))
	m.cleanupDurationSeconds.WithLabelValues(policy).Observe(duration.Seconds())
}

// RecordFileAction counts one per-file action during a sweep.
func (m *DiskManagerMetrics) RecordFileAction(policy, action string) {
	m.filesProcessedTotal.WithLabelValues(policy, action).Inc()
}
