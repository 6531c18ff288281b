// Package diskmanager prunes aged inspection artifacts. Two retention
// policies are available: age removes files older than a configured
// window, usage removes oldest files until disk usage drops below a
// threshold. Sweeps are best effort, per file failures are logged and
// skipped, and a sweep never runs before a job's artifacts are durably
// written.
package diskmanager

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/pcbvision/aoi-go/internal/artifact"
	"github.com/pcbvision/aoi-go/internal/conf"
	"github.com/pcbvision/aoi-go/internal/errors"
	"github.com/pcbvision/aoi-go/internal/logging"
	"github.com/pcbvision/aoi-go/internal/observability/metrics"
)

// Clock supplies the current time to retention policies so tests can
// simulate elapsed time without touching real file timestamps.
type Clock func() time.Time

// CleanupResult reports the outcome of one sweep.
type CleanupResult struct {
	Removed int // files deleted
	Skipped int // files that failed to delete and were left in place
}

// diskMetrics is an optional metrics recorder, set once at startup.
var diskMetrics *metrics.DiskManagerMetrics

// SetMetrics wires Prometheus metrics into the package. Safe to leave
// unset; sweeps then run without recording.
func SetMetrics(m *metrics.DiskManagerMetrics) {
	diskMetrics = m
}

// Cleanup runs the configured retention policy over the artifact
// namespaces. The window argument overrides the configured age window
// when positive; pass 0 to use the configured default.
func Cleanup(settings *conf.Settings, windowMinutes int, clock Clock) (CleanupResult, error) {
	if clock == nil {
		clock = time.Now
	}

	retention := &settings.Inspection.Artifacts.Retention
	dirs := namespaceDirs(settings)

	switch retention.Policy {
	case "age", "":
		if windowMinutes <= 0 {
			windowMinutes = retention.Window
		}
		return AgeBasedCleanup(dirs, time.Duration(windowMinutes)*time.Minute, clock, retention.Debug), nil

	case "usage":
		threshold, err := conf.ParsePercentage(retention.MaxUsage)
		if err != nil {
			return CleanupResult{}, errors.New(err).
				Component("diskmanager").
				Category(errors.CategoryPolicyConfig).
				Context("maxusage", retention.MaxUsage).
				Build()
		}
		return UsageBasedCleanup(settings.Inspection.Artifacts.Path, dirs, threshold, retention.Debug)

	case "none":
		return CleanupResult{}, nil

	default:
		return CleanupResult{}, errors.Newf("unknown retention policy %q", retention.Policy).
			Component("diskmanager").
			Category(errors.CategoryPolicyConfig).
			Build()
	}
}

// namespaceDirs lists the artifact directories a sweep may touch. The
// sweep never walks outside the uploads and results namespaces.
func namespaceDirs(settings *conf.Settings) []string {
	root := settings.Inspection.Artifacts.Path
	return []string{
		filepath.Join(root, string(artifact.NamespaceUploads)),
		filepath.Join(root, string(artifact.NamespaceResults)),
	}
}

var log *slog.Logger

func init() {
	log = logging.ForService("diskmanager")
	if log == nil {
		log = slog.Default().With("service", "diskmanager")
	}
}
