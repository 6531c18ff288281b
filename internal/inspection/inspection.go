// Package inspection orchestrates the image, batch and video pipelines.
// It owns the lifecycle of one inspection job: decode input, run the
// detector, apply the verdict policy, render artifacts, persist the
// result record and deliver the verdict downstream. The retention sweep
// runs after each job so freshly written artifacts are never deleted
// before the verdict is out.
package inspection

import (
	"context"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/pcbvision/aoi-go/internal/artifact"
	"github.com/pcbvision/aoi-go/internal/conf"
	"github.com/pcbvision/aoi-go/internal/datastore"
	"github.com/pcbvision/aoi-go/internal/detector"
	"github.com/pcbvision/aoi-go/internal/diskmanager"
	"github.com/pcbvision/aoi-go/internal/errors"
	"github.com/pcbvision/aoi-go/internal/logging"
	"github.com/pcbvision/aoi-go/internal/mqtt"
	"github.com/pcbvision/aoi-go/internal/observability"
	"github.com/pcbvision/aoi-go/internal/verdict"
)

// Result cache TTLs. Recent verdicts are re-read by CLI wait flows and
// by consumers reacting to MQTT messages, so lookups stay cheap without
// touching the database.
const (
	resultCacheTTL   = 10 * time.Minute
	resultCacheSweep = 20 * time.Minute
)

// Inspector runs inspection jobs. The datastore, MQTT client and
// metrics are optional; a nil value disables that integration without
// changing pipeline behavior.
type Inspector struct {
	Settings *conf.Settings

	detector    detector.Detector
	store       *artifact.Store
	ds          datastore.Interface
	mq          mqtt.Client
	metrics     *observability.Metrics
	framePolicy verdict.FramePolicy
	results     *gocache.Cache
}

// New creates an Inspector. ds, mq and m may be nil.
func New(settings *conf.Settings, det detector.Detector, store *artifact.Store, ds datastore.Interface, mq mqtt.Client, m *observability.Metrics) *Inspector {
	return &Inspector{
		Settings:    settings,
		detector:    det,
		store:       store,
		ds:          ds,
		mq:          mq,
		metrics:     m,
		framePolicy: verdict.FramePolicyFromSettings(settings.Inspection.Video.GradedFrameVerdicts),
		results:     gocache.New(resultCacheTTL, resultCacheSweep),
	}
}

// Result returns the most recent verdict for a PCB identifier. The
// lookup order is cache, datastore, then the newest result record on
// disk.
func (i *Inspector) Result(pcbID string) (*artifact.Record, error) {
	if cached, ok := i.results.Get(pcbID); ok {
		return cached.(*artifact.Record), nil
	}

	if i.ds != nil {
		rec, err := i.ds.Get(pcbID)
		if err == nil {
			i.results.SetDefault(pcbID, rec)
			return rec, nil
		}
		if !errors.IsNotFound(err) {
			return nil, err
		}
	}

	rec, err := i.store.LatestRecord(pcbID)
	if err != nil {
		return nil, err
	}
	i.results.SetDefault(pcbID, rec)
	return rec, nil
}

// Cleanup runs the configured retention policy once and returns the
// number of removed artifacts. A windowMinutes greater than zero
// overrides the configured age window.
func (i *Inspector) Cleanup(windowMinutes int) (int, error) {
	result, err := diskmanager.Cleanup(i.Settings, windowMinutes, time.Now)
	if err != nil {
		return result.Removed, err
	}
	return result.Removed, nil
}

// finish persists and announces a completed verdict: the JSON record is
// written next to the media artifacts, the datastore and MQTT
// integrations are fed best-effort, and the result cache is primed. Only
// the record write can fail the job, everything downstream of it
// degrades to a warning.
func (i *Inspector) finish(ctx context.Context, rec *artifact.Record, timestamp, source string) error {
	if _, err := i.store.SaveRecord(rec, timestamp); err != nil {
		return err
	}

	if i.ds != nil {
		if err := i.ds.Save(rec, source); err != nil {
			log.Warn("datastore save failed",
				slog.String("pcb_id", rec.PCBID),
				slog.Any("error", err))
		}
	}

	i.publish(ctx, rec)
	i.results.SetDefault(rec.PCBID, rec)

	log.Info("inspection finished",
		slog.String("pcb_id", rec.PCBID),
		slog.String("source", source),
		slog.String("status", string(rec.Status)),
		slog.String("defect_type", rec.DefectType))

	return nil
}

// publish delivers the verdict over MQTT when a client is configured.
func (i *Inspector) publish(ctx context.Context, rec *artifact.Record) {
	if i.mq == nil {
		return
	}

	payload, err := mqtt.EncodeVerdict(i.Settings.Main.Name, rec)
	if err != nil {
		log.Warn("verdict encode failed",
			slog.String("pcb_id", rec.PCBID),
			slog.Any("error", err))
		return
	}

	topic := mqtt.VerdictTopic(i.Settings.Inspection.MQTT.Topic, rec.PCBID)
	if err := i.mq.Publish(ctx, topic, payload); err != nil {
		log.Warn("verdict publish failed",
			slog.String("pcb_id", rec.PCBID),
			slog.String("topic", topic),
			slog.Any("error", err))
	}
}

// sweep runs the retention policy after a job's artifacts are durably
// written. Failures never propagate to the verdict.
func (i *Inspector) sweep() {
	result, err := diskmanager.Cleanup(i.Settings, 0, time.Now)
	if err != nil {
		log.Warn("retention sweep failed", slog.Any("error", err))
		return
	}
	if result.Removed > 0 {
		log.Debug("retention sweep removed artifacts",
			slog.Int("removed", result.Removed),
			slog.Int("skipped", result.Skipped))
	}
}

// errorRecord builds the ERROR verdict for a job that failed after
// input validation. The failure text rides in the defect type field so
// the presentation layer renders it without a dedicated error channel.
func (i *Inspector) errorRecord(pcbID string, cause error) *artifact.Record {
	msg := cause.Error()
	var enhanced *errors.EnhancedError
	if errors.As(cause, &enhanced) {
		msg = enhanced.GetMessage()
	}

	return &artifact.Record{
		PCBID:      pcbID,
		Status:     verdict.StatusError,
		DefectType: "Processing Error: " + msg,
		Timestamp:  time.Now(),
		Error:      true,
	}
}

// recordInspection feeds the inspection counters when metrics are wired.
func (i *Inspector) recordInspection(kind string, rec *artifact.Record, start time.Time) {
	if i.metrics == nil {
		return
	}

	i.metrics.Inspection.RecordInspection(kind, string(rec.Status), time.Since(start))
	if rec.Error {
		i.metrics.Inspection.RecordProcessingError(kind)
	}
	for d := range rec.Detections {
		i.metrics.Inspection.RecordDetection(rec.Detections[d].Class.Label())
	}
}

var log *slog.Logger

func init() {
	log = logging.ForService("inspection")
	if log == nil {
		log = slog.Default().With("service", "inspection")
	}
}
