package inspection

import (
	"context"
	"log/slog"
	"time"

	"github.com/pcbvision/aoi-go/internal/artifact"
	"github.com/pcbvision/aoi-go/internal/conf"
	"github.com/pcbvision/aoi-go/internal/datastore"
	"github.com/pcbvision/aoi-go/internal/detector"
	"github.com/pcbvision/aoi-go/internal/diskmanager"
	"github.com/pcbvision/aoi-go/internal/mqtt"
	"github.com/pcbvision/aoi-go/internal/observability"
)

// mqttConnectTimeout bounds the startup connect attempt. A broker that
// is down at startup only costs this long, publishing reconnects later.
const mqttConnectTimeout = 10 * time.Second

// Build assembles a fully wired Inspector from settings: detector,
// artifact store, metrics, and the optional datastore and MQTT
// integrations. The returned teardown releases everything the build
// acquired and is safe to call once.
func Build(settings *conf.Settings) (*Inspector, func(), error) {
	det, err := detector.New(settings)
	if err != nil {
		return nil, nil, err
	}

	store, err := artifact.NewStore(settings)
	if err != nil {
		det.Close()
		return nil, nil, err
	}

	m, err := observability.NewMetrics()
	if err != nil {
		det.Close()
		return nil, nil, err
	}
	diskmanager.SetMetrics(m.DiskManager)

	ds := datastore.New(settings, m.Datastore)
	if ds != nil {
		if err := ds.Open(); err != nil {
			log.Warn("datastore unavailable, continuing without it",
				slog.Any("error", err))
			ds = nil
		}
	}

	var mq mqtt.Client
	if settings.Inspection.MQTT.Enabled {
		mq = mqtt.NewClient(mqtt.ConfigFromSettings(settings), m.MQTT)

		ctx, cancel := context.WithTimeout(context.Background(), mqttConnectTimeout)
		if err := mq.Connect(ctx); err != nil {
			log.Warn("MQTT broker unreachable at startup",
				slog.String("broker", settings.Inspection.MQTT.Broker),
				slog.Any("error", err))
		}
		cancel()
	}

	teardown := func() {
		if mq != nil {
			mq.Disconnect()
		}
		if ds != nil {
			if err := ds.Close(); err != nil {
				log.Warn("datastore close failed", slog.Any("error", err))
			}
		}
		if err := det.Close(); err != nil {
			log.Warn("detector close failed", slog.Any("error", err))
		}
	}

	return New(settings, det, store, ds, mq, m), teardown, nil
}
