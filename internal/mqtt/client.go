// client.go: paho based implementation of the Client interface.
package mqtt

import (
	"context"
	"net"
	"net/url"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/pcbvision/aoi-go/internal/errors"
	"github.com/pcbvision/aoi-go/internal/observability/metrics"
)

// client implements the Client interface.
type client struct {
	config         Config
	internalClient pahomqtt.Client

	mu              sync.Mutex
	lastConnAttempt time.Time
	metrics         *metrics.MQTTMetrics
}

// NewClient creates a new MQTT client with the provided configuration.
// Metrics may be nil.
func NewClient(config Config, m *metrics.MQTTMetrics) Client {
	return &client{
		config:  config,
		metrics: m,
	}
}

// Connect attempts to establish a connection to the MQTT broker. The
// broker hostname is resolved first so DNS failures surface as typed
// errors before paho starts its own retry machinery.
func (c *client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if since := time.Since(c.lastConnAttempt); since < c.config.ReconnectCooldown {
		return errors.Newf("connection attempt too recent, last attempt was %v ago", since).
			Component("mqtt").
			Category(errors.CategoryMQTTConnection).
			Build()
	}
	c.lastConnAttempt = time.Now()

	if err := c.resolveBroker(ctx); err != nil {
		c.recordConnect(metrics.StatusError)
		return err
	}

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(c.config.Broker)
	opts.SetClientID(c.config.ClientID)
	opts.SetUsername(c.config.Username)
	opts.SetPassword(c.config.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)

	c.internalClient = pahomqtt.NewClient(opts)

	token := c.internalClient.Connect()
	if !token.WaitTimeout(c.config.ConnectTimeout) {
		c.recordConnect(metrics.StatusTimeout)
		return errors.Newf("connection timeout").
			Component("mqtt").
			Category(errors.CategoryMQTTConnection).
			NetworkContext(c.config.Broker, c.config.ConnectTimeout).
			Build()
	}
	if err := token.Error(); err != nil {
		c.recordConnect(metrics.StatusError)
		return errors.New(err).
			Component("mqtt").
			Category(errors.CategoryMQTTConnection).
			NetworkContext(c.config.Broker, c.config.ConnectTimeout).
			Build()
	}

	c.recordConnect(metrics.StatusSuccess)
	return nil
}

// resolveBroker checks that the broker URL parses and its hostname
// resolves. IP address brokers skip the DNS lookup.
func (c *client) resolveBroker(ctx context.Context) error {
	u, err := url.Parse(c.config.Broker)
	if err != nil {
		return errors.New(err).
			Component("mqtt").
			Category(errors.CategoryMQTTConnection).
			Context("broker", c.config.Broker).
			Build()
	}

	host := u.Hostname()
	if host == "" || net.ParseIP(host) != nil {
		return nil
	}

	if _, err := net.DefaultResolver.LookupHost(ctx, host); err != nil {
		return errors.New(err).
			Component("mqtt").
			Category(errors.CategoryMQTTConnection).
			Context("host", host).
			Build()
	}
	return nil
}

// Publish sends a message to the specified topic on the MQTT broker.
func (c *client) Publish(ctx context.Context, topic, payload string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.IsConnected() {
		c.recordPublish(metrics.StatusError)
		return errors.Newf("not connected to MQTT broker").
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Context("topic", topic).
			Build()
	}

	token := c.internalClient.Publish(topic, 0, c.config.Retain, payload)
	if !token.WaitTimeout(c.config.PublishTimeout) {
		c.recordPublish(metrics.StatusTimeout)
		return errors.Newf("publish timeout").
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Context("topic", topic).
			Build()
	}
	if err := token.Error(); err != nil {
		c.recordPublish(metrics.StatusError)
		return errors.New(err).
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Context("topic", topic).
			Build()
	}

	mqttLogger.Debug("published verdict", "topic", topic, "bytes", len(payload))
	c.recordPublish(metrics.StatusSuccess)
	return nil
}

// IsConnected returns true if the client is currently connected.
func (c *client) IsConnected() bool {
	return c.internalClient != nil && c.internalClient.IsConnected()
}

// Disconnect closes the connection to the MQTT broker.
func (c *client) Disconnect() {
	if c.internalClient != nil && c.internalClient.IsConnected() {
		c.internalClient.Disconnect(uint(c.config.DisconnectTimeout.Milliseconds()))
		if c.metrics != nil {
			c.metrics.RecordDisconnect()
		}
	}
}

func (c *client) onConnect(_ pahomqtt.Client) {
	mqttLogger.Info("connected to MQTT broker", "broker", c.config.Broker)
}

func (c *client) onConnectionLost(_ pahomqtt.Client, err error) {
	mqttLogger.Warn("connection to MQTT broker lost",
		"broker", c.config.Broker, "error", err)
	if c.metrics != nil {
		c.metrics.RecordDisconnect()
	}
}

func (c *client) recordConnect(status string) {
	if c.metrics != nil {
		c.metrics.RecordConnect(status)
	}
}

func (c *client) recordPublish(status string) {
	if c.metrics != nil {
		c.metrics.RecordPublish(status)
	}
}
