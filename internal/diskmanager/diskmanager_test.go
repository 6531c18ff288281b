package diskmanager

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcbvision/aoi-go/internal/conf"
)

func retentionSettings(t *testing.T, policy string, window int) *conf.Settings {
	t.Helper()

	settings := &conf.Settings{}
	settings.Inspection.Artifacts.Path = t.TempDir()
	settings.Inspection.Artifacts.Retention.Policy = policy
	settings.Inspection.Artifacts.Retention.Window = window
	settings.Inspection.Artifacts.Retention.MaxUsage = "80%"

	for _, ns := range []string{"uploads", "results"} {
		require.NoError(t, os.MkdirAll(filepath.Join(settings.Inspection.Artifacts.Path, ns), 0o755))
	}
	return settings
}

func TestCleanupAgePolicy(t *testing.T) {
	t.Parallel()

	settings := retentionSettings(t, "age", 10)
	now := time.Now()

	uploads := filepath.Join(settings.Inspection.Artifacts.Path, "uploads")
	aged := writeAgedFile(t, uploads, "PCB-A_20260826_110000.jpg", 15*time.Minute, now)
	fresh := writeAgedFile(t, uploads, "PCB-B_20260826_115500.jpg", 5*time.Minute, now)

	result, err := Cleanup(settings, 0, func() time.Time { return now })
	require.NoError(t, err)

	assert.Equal(t, 1, result.Removed)
	assert.NoFileExists(t, aged)
	assert.FileExists(t, fresh)
}

func TestCleanupWindowOverride(t *testing.T) {
	t.Parallel()

	settings := retentionSettings(t, "age", 10)
	now := time.Now()

	results := filepath.Join(settings.Inspection.Artifacts.Path, "results")
	// 5 minutes old: inside the default window, outside an override of 2.
	path := writeAgedFile(t, results, "PCB-C_20260826_115500_result.json", 5*time.Minute, now)

	result, err := Cleanup(settings, 2, func() time.Time { return now })
	require.NoError(t, err)

	assert.Equal(t, 1, result.Removed)
	assert.NoFileExists(t, path)
}

func TestCleanupNonePolicy(t *testing.T) {
	t.Parallel()

	settings := retentionSettings(t, "none", 10)
	now := time.Now()

	uploads := filepath.Join(settings.Inspection.Artifacts.Path, "uploads")
	aged := writeAgedFile(t, uploads, "ancient.jpg", 24*time.Hour, now)

	result, err := Cleanup(settings, 0, func() time.Time { return now })
	require.NoError(t, err)

	assert.Zero(t, result.Removed)
	assert.FileExists(t, aged)
}

func TestCleanupUnknownPolicy(t *testing.T) {
	t.Parallel()

	settings := retentionSettings(t, "lru", 10)

	_, err := Cleanup(settings, 0, time.Now)
	assert.Error(t, err)
}

func TestCleanupNeverTouchesOutsideNamespaces(t *testing.T) {
	t.Parallel()

	settings := retentionSettings(t, "age", 10)
	now := time.Now()

	// A stray file directly under the artifact root is not in either
	// namespace and must survive the sweep.
	stray := writeAgedFile(t, settings.Inspection.Artifacts.Path, "stray.db", time.Hour, now)

	_, err := Cleanup(settings, 0, func() time.Time { return now })
	require.NoError(t, err)

	assert.FileExists(t, stray)
}
