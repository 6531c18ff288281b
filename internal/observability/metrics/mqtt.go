package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MQTTMetrics contains Prometheus metrics for verdict publishing.
type MQTTMetrics struct {
	connectsTotal  *prometheus.CounterVec
	publishesTotal *prometheus.CounterVec
	connected      prometheus.Gauge
}

// NewMQTTMetrics creates and registers MQTT metrics.
func NewMQTTMetrics(registry *prometheus.Registry) (*MQTTMetrics, error) {
	m := &MQTTMetrics{
		connectsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mqtt_connects_total",
				Help: "Total broker connection attempts by outcome",
			},
			[]string{"status"},
		),
		publishesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mqtt_publishes_total",
				Help: "Total verdict publish attempts by outcome",
			},
			[]string{"status"},
		),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mqtt_connected",
			Help: "1 when the broker connection is up",
		}),
	}

	collectors := []prometheus.Collector{
		m.connectsTotal,
		m.publishesTotal,
		m.connected,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordConnect counts one connection attempt.
func (m *MQTTMetrics) RecordConnect(status string) {
	m.connectsTotal.WithLabelValues(status).Inc()
	if status == StatusSuccess {
		m.connected.Set(1)
	} else {
		m.connected.Set(0)
	}
}

// RecordDisconnect marks the connection as down.
func (m *MQTTMetrics) RecordDisconnect() {
	m.connected.Set(0)
}

// RecordPublish counts one publish attempt.
func (m *MQTTMetrics) RecordPublish(status string) {
	m.publishesTotal.WithLabelValues(status).Inc()
}
