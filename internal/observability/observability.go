// Package observability aggregates the Prometheus metric collectors of
// the inspection pipeline behind a single private registry.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/pcbvision/aoi-go/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry    *prometheus.Registry
	Inspection  *metrics.InspectionMetrics
	Detector    *metrics.DetectorMetrics
	Video       *metrics.VideoMetrics
	DiskManager *metrics.DiskManagerMetrics
	MQTT        *metrics.MQTTMetrics
	Datastore   *metrics.DatastoreMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric
// collectors against a fresh private registry.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	inspectionMetrics, err := metrics.NewInspectionMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create inspection metrics: %w", err)
	}

	detectorMetrics, err := metrics.NewDetectorMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create detector metrics: %w", err)
	}

	videoMetrics, err := metrics.NewVideoMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create video metrics: %w", err)
	}

	diskManagerMetrics, err := metrics.NewDiskManagerMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create diskmanager metrics: %w", err)
	}

	mqttMetrics, err := metrics.NewMQTTMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create MQTT metrics: %w", err)
	}

	datastoreMetrics, err := metrics.NewDatastoreMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create datastore metrics: %w", err)
	}

	return &Metrics{
		registry:    registry,
		Inspection:  inspectionMetrics,
		Detector:    detectorMetrics,
		Video:       videoMetrics,
		DiskManager: diskManagerMetrics,
		MQTT:        mqttMetrics,
		Datastore:   datastoreMetrics,
	}, nil
}

// Gather exposes the registry contents, used by tests and by exporters.
func (m *Metrics) Gather() ([]*dto.MetricFamily, error) {
	return m.registry.Gather()
}
