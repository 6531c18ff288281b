package mqtt

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pcbvision/aoi-go/internal/artifact"
	"github.com/pcbvision/aoi-go/internal/conf"
	"github.com/pcbvision/aoi-go/internal/errors"
	"github.com/pcbvision/aoi-go/internal/verdict"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	assert.Equal(t, 5*time.Second, cfg.ReconnectCooldown)
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 10*time.Second, cfg.PublishTimeout)
}

func TestConfigFromSettings(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Main.Name = "line-3"
	settings.Inspection.MQTT.Broker = "tcp://broker.factory:1883"
	settings.Inspection.MQTT.Topic = "aoi/inspection"
	settings.Inspection.MQTT.Retain = true

	cfg := ConfigFromSettings(settings)
	assert.Equal(t, "tcp://broker.factory:1883", cfg.Broker)
	assert.Equal(t, "line-3", cfg.ClientID)
	assert.Equal(t, "aoi/inspection", cfg.Topic)
	assert.True(t, cfg.Retain)
}

func TestPublishWithoutConnection(t *testing.T) {
	t.Parallel()

	c := NewClient(DefaultConfig(), nil)

	err := c.Publish(context.Background(), "aoi/inspection/PCB-1", "{}")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryMQTTPublish))
	assert.False(t, c.IsConnected())
}

func TestConnectCooldown(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Broker = "tcp://192.0.2.1:1883" // TEST-NET, never reachable
	cfg.ConnectTimeout = 50 * time.Millisecond
	cfg.ReconnectCooldown = time.Hour

	c := NewClient(cfg, nil).(*client)
	c.lastConnAttempt = time.Now()

	err := c.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too recent")
}

func TestConnectRejectsUnresolvableHost(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Broker = "tcp://mqtt.invalid.:1883"
	cfg.ConnectTimeout = time.Second

	c := NewClient(cfg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := c.Connect(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryMQTTConnection))
}

func TestVerdictTopic(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "aoi/inspection/PCB-1A2B3C4D",
		VerdictTopic("aoi/inspection", "PCB-1A2B3C4D"))
}

func TestEncodeVerdict(t *testing.T) {
	t.Parallel()

	rec := &artifact.Record{
		PCBID:      "PCB-1A2B3C4D",
		Status:     verdict.StatusFail,
		DefectType: "Scratch",
	}

	payload, err := EncodeVerdict("line-3", rec)
	require.NoError(t, err)

	var msg VerdictMessage
	require.NoError(t, json.Unmarshal([]byte(payload), &msg))
	assert.Equal(t, "line-3", msg.Station)
	assert.Equal(t, verdict.StatusFail, msg.Result.Status)
	assert.Equal(t, "Scratch", msg.Result.DefectType)
}
