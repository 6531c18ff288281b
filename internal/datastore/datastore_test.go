package datastore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcbvision/aoi-go/internal/artifact"
	"github.com/pcbvision/aoi-go/internal/conf"
	"github.com/pcbvision/aoi-go/internal/errors"
	"github.com/pcbvision/aoi-go/internal/taxonomy"
	"github.com/pcbvision/aoi-go/internal/verdict"
)

func openSQLite(t *testing.T) Interface {
	t.Helper()

	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "aoi.db")

	store := New(settings, nil)
	require.NotNil(t, store)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRecord(id string, ts time.Time) *artifact.Record {
	return &artifact.Record{
		PCBID:      id,
		Status:     verdict.StatusFail,
		DefectType: "Scratch",
		Timestamp:  ts,
		Metrics:    map[string]float64{"total_defects": 1},
		Detections: []taxonomy.Detection{{
			Class:      taxonomy.ClassScratch,
			Confidence: 0.91,
			Box:        taxonomy.Box{X1: 10.0, Y1: 20.0, X2: 110.0, Y2: 220.0},
			Area:       20000.0,
		}},
	}
}

func TestSQLiteSaveAndGet(t *testing.T) {
	store := openSQLite(t)
	ts := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(sampleRecord("PCB-TEST0001", ts), "image"))

	rec, err := store.Get("PCB-TEST0001")
	require.NoError(t, err)
	assert.Equal(t, verdict.StatusFail, rec.Status)
	assert.Equal(t, "Scratch", rec.DefectType)
	assert.InDelta(t, 1.0, rec.Metrics["total_defects"], 1e-9)
	require.Len(t, rec.Detections, 1)
	assert.Equal(t, taxonomy.ClassScratch, rec.Detections[0].Class)
	assert.InDelta(t, 0.91, rec.Detections[0].Confidence, 1e-9)
	assert.InDelta(t, 20000.0, rec.Detections[0].Area, 1e-9)
}

func TestGetReturnsNewestVerdict(t *testing.T) {
	store := openSQLite(t)

	older := sampleRecord("PCB-A", time.Date(2026, 8, 26, 11, 0, 0, 0, time.UTC))
	older.Status = verdict.StatusPass
	older.DefectType = verdict.NoDefect
	older.Detections = nil

	newer := sampleRecord("PCB-A", time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC))

	require.NoError(t, store.Save(older, "image"))
	require.NoError(t, store.Save(newer, "image"))

	rec, err := store.Get("PCB-A")
	require.NoError(t, err)
	assert.Equal(t, verdict.StatusFail, rec.Status)
}

func TestGetNotFound(t *testing.T) {
	store := openSQLite(t)

	_, err := store.Get("PCB-MISSING")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestGetAllOrdersNewestFirst(t *testing.T) {
	store := openSQLite(t)

	for i, id := range []string{"PCB-1", "PCB-2", "PCB-3"} {
		ts := time.Date(2026, 8, 26, 10+i, 0, 0, 0, time.UTC)
		require.NoError(t, store.Save(sampleRecord(id, ts), "batch_item"))
	}

	recs, err := store.GetAll(2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "PCB-3", recs[0].PCBID)
	assert.Equal(t, "PCB-2", recs[1].PCBID)
}

func TestNewReturnsNilWhenDisabled(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	assert.Nil(t, New(settings, nil))
}
