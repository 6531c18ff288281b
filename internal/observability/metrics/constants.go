// Package metrics provides Prometheus metric collectors for the AOI
// inspection pipeline.
package metrics

// Histogram bucket parameters shared across metric definitions.
const (
	BucketStart1ms   = 0.001
	BucketStart10ms  = 0.01
	BucketStart100ms = 0.1
	BucketFactor2    = 2.0
	BucketCount10    = 10
)

// Status label values shared across counters.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusTimeout = "timeout"
)
