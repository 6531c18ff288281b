package artifact

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcbvision/aoi-go/internal/conf"
	"github.com/pcbvision/aoi-go/internal/errors"
	"github.com/pcbvision/aoi-go/internal/taxonomy"
	"github.com/pcbvision/aoi-go/internal/verdict"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	settings := &conf.Settings{}
	settings.Inspection.Artifacts.Path = t.TempDir()

	store, err := NewStore(settings)
	require.NoError(t, err)
	return store
}

func TestNewStoreCreatesNamespaces(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	for _, ns := range []Namespace{NamespaceUploads, NamespaceResults} {
		info, err := os.Stat(store.Dir(ns))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestFileName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "PCB-001_20260826_120000.jpg",
		FileName("PCB-001", "20260826_120000", "", "jpg"))
	assert.Equal(t, "PCB-001_20260826_120000_annotated.jpg",
		FileName("PCB-001", "20260826_120000", "annotated", ".jpg"))
	assert.Equal(t, "PCB-001_20260826_120000_result.json",
		FileName("PCB-001", "20260826_120000", "result", "json"))
}

func TestNewIDShape(t *testing.T) {
	t.Parallel()

	id := NewID()
	assert.Regexp(t, `^PCB-[0-9A-F]{8}$`, id)
	assert.NotEqual(t, id, NewID())
}

func TestTimestampUsesInjectedClock(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	store.SetClock(func() time.Time {
		return time.Date(2026, 8, 26, 13, 14, 15, 0, time.UTC)
	})

	assert.Equal(t, "20260826_131415", store.Timestamp())
}

func TestRecordRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	rec := &Record{
		PCBID:      "PCB-TEST0001",
		Status:     verdict.StatusFail,
		DefectType: "Scratch",
		Timestamp:  time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC),
		Metrics:    map[string]float64{"total_defects": 1},
		Detections: []taxonomy.Detection{{
			Class:      taxonomy.ClassScratch,
			Confidence: 0.91,
			Box:        taxonomy.Box{X1: 1.0, Y1: 2.0, X2: 11.0, Y2: 12.0},
			Area:       100.0,
		}},
		Images: &ImageRefs{Original: "a.jpg", Annotated: "b.jpg"},
	}

	path, err := store.SaveRecord(rec, "20260826_120000")
	require.NoError(t, err)
	assert.Equal(t, "PCB-TEST0001_20260826_120000_result.json", filepath.Base(path))

	loaded, err := LoadRecord(path)
	require.NoError(t, err)
	assert.Equal(t, rec.Status, loaded.Status)
	assert.Equal(t, rec.DefectType, loaded.DefectType)
	assert.Equal(t, rec.Metrics, loaded.Metrics)
	require.Len(t, loaded.Detections, 1)
	assert.Equal(t, taxonomy.ClassScratch, loaded.Detections[0].Class)
	assert.InDelta(t, 0.91, loaded.Detections[0].Confidence, 1e-9)
}

func TestLatestRecordPicksNewestTimestamp(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	older := &Record{PCBID: "PCB-A", Status: verdict.StatusPass, DefectType: verdict.NoDefect}
	newer := &Record{PCBID: "PCB-A", Status: verdict.StatusFail, DefectType: "Spur"}

	_, err := store.SaveRecord(older, "20260826_110000")
	require.NoError(t, err)
	_, err = store.SaveRecord(newer, "20260826_120000")
	require.NoError(t, err)

	loaded, err := store.LatestRecord("PCB-A")
	require.NoError(t, err)
	assert.Equal(t, verdict.StatusFail, loaded.Status)
}

func TestLatestRecordNotFound(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	_, err := store.LatestRecord("PCB-MISSING")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func encodePNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeImageRawBytes(t *testing.T) {
	t.Parallel()

	img, err := DecodeImage(encodePNG(t))
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
}

func TestDecodeImageDataURI(t *testing.T) {
	t.Parallel()

	payload := []byte("data:image/png;base64," + base64.StdEncoding.EncodeToString(encodePNG(t)))

	img, err := DecodeImage(payload)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dy())
}

func TestDecodeImageRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := DecodeImage([]byte("not an image"))
	require.Error(t, err)
	assert.True(t, errors.IsInputError(err))

	_, err = DecodeImage([]byte("data:image/png;base64"))
	require.Error(t, err)
	assert.True(t, errors.IsInputError(err))
}

func TestSaveImageWritesJPEG(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))

	path, err := store.SaveImage(NamespaceResults, "PCB-X_20260826_120000_annotated.jpg", img)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// JPEG SOI marker
	require.GreaterOrEqual(t, len(data), 2)
	assert.Equal(t, []byte{0xff, 0xd8}, data[:2])
}

func TestEncodedExt(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "png", EncodedExt("board.PNG"))
	assert.Equal(t, "mp4", EncodedExt("run.mp4"))
	assert.Equal(t, "jpg", EncodedExt("payload"))
	assert.Equal(t, "jpg", EncodedExt("weird.webp"))
}
