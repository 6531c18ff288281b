// mqtt.go: Package mqtt publishes inspection verdicts to a factory broker.
package mqtt

import (
	"context"
	"log/slog"
	"time"

	"github.com/pcbvision/aoi-go/internal/conf"
	"github.com/pcbvision/aoi-go/internal/logging"
)

// Client defines the interface for MQTT client operations.
type Client interface {
	// Connect attempts to connect to the MQTT broker.
	Connect(ctx context.Context) error

	// Publish sends a message to the specified topic on the MQTT broker.
	Publish(ctx context.Context, topic, payload string) error

	// IsConnected returns true if the client is currently connected.
	IsConnected() bool

	// Disconnect closes the connection to the MQTT broker.
	Disconnect()
}

// Config holds the configuration for the MQTT client.
type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string // topic prefix, verdicts publish to {Topic}/{id}
	Retain   bool

	ReconnectCooldown time.Duration
	ConnectTimeout    time.Duration
	PublishTimeout    time.Duration
	DisconnectTimeout time.Duration
}

// DefaultConfig returns a Config with reasonable default values.
func DefaultConfig() Config {
	return Config{
		ReconnectCooldown: 5 * time.Second,
		ConnectTimeout:    30 * time.Second,
		PublishTimeout:    10 * time.Second,
		DisconnectTimeout: 250 * time.Millisecond,
	}
}

// ConfigFromSettings builds the client config from application settings.
func ConfigFromSettings(settings *conf.Settings) Config {
	cfg := DefaultConfig()
	cfg.Broker = settings.Inspection.MQTT.Broker
	cfg.ClientID = settings.Main.Name
	cfg.Username = settings.Inspection.MQTT.Username
	cfg.Password = settings.Inspection.MQTT.Password
	cfg.Topic = settings.Inspection.MQTT.Topic
	cfg.Retain = settings.Inspection.MQTT.Retain
	return cfg
}

var mqttLogger *slog.Logger

func init() {
	mqttLogger = logging.ForService("mqtt")
	if mqttLogger == nil {
		mqttLogger = slog.Default().With("service", "mqtt")
	}
}
