package annotate

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcbvision/aoi-go/internal/taxonomy"
)

func TestDrawDoesNotModifyInput(t *testing.T) {
	t.Parallel()

	src := image.NewRGBA(image.Rect(0, 0, 100, 100))
	detections := []taxonomy.Detection{
		{Class: taxonomy.ClassScratch, Confidence: 0.9, Box: taxonomy.Box{X1: 20, Y1: 30, X2: 80, Y2: 70}},
	}

	out := Draw(src, detections)

	require.NotSame(t, src, out)
	assert.Equal(t, color.RGBA{}, src.RGBAAt(20, 30))
	assert.Equal(t, src.Bounds(), out.Bounds())
}

func TestDrawRendersOutline(t *testing.T) {
	t.Parallel()

	src := image.NewRGBA(image.Rect(0, 0, 100, 100))
	detections := []taxonomy.Detection{
		{Class: taxonomy.ClassScratch, Confidence: 0.9, Box: taxonomy.Box{X1: 20, Y1: 30, X2: 80, Y2: 70}},
	}

	out := Draw(src, detections)

	want := classPalette[int(taxonomy.ClassScratch)]
	assert.Equal(t, want, out.RGBAAt(20, 50), "left edge")
	assert.Equal(t, want, out.RGBAAt(79, 50), "right edge")
	assert.Equal(t, want, out.RGBAAt(50, 30), "top edge")
	assert.Equal(t, want, out.RGBAAt(50, 69), "bottom edge")
	assert.Equal(t, color.RGBA{}, out.RGBAAt(50, 50), "interior untouched")
}

func TestDrawClampsOutOfBoundsBoxes(t *testing.T) {
	t.Parallel()

	src := image.NewRGBA(image.Rect(0, 0, 50, 50))
	detections := []taxonomy.Detection{
		{Class: taxonomy.ClassSpur, Confidence: 0.5, Box: taxonomy.Box{X1: -20, Y1: -20, X2: 200, Y2: 200}},
		{Class: taxonomy.ClassPinhole, Confidence: 0.5, Box: taxonomy.Box{X1: 300, Y1: 300, X2: 400, Y2: 400}},
	}

	out := Draw(src, detections)
	assert.Equal(t, classPalette[int(taxonomy.ClassSpur)], out.RGBAAt(25, 0))
}

func TestDrawUnknownClassUsesFallbackColor(t *testing.T) {
	t.Parallel()

	src := image.NewRGBA(image.Rect(0, 0, 100, 100))
	detections := []taxonomy.Detection{
		{Class: taxonomy.Class(42), Confidence: 0.4, Box: taxonomy.Box{X1: 10, Y1: 40, X2: 90, Y2: 90}},
	}

	out := Draw(src, detections)
	assert.Equal(t, unknownColor, out.RGBAAt(10, 60))
}

func TestDrawLabelBackground(t *testing.T) {
	t.Parallel()

	src := image.NewRGBA(image.Rect(0, 0, 200, 200))
	detections := []taxonomy.Detection{
		{Class: taxonomy.ClassMissingHole, Confidence: 0.87, Box: taxonomy.Box{X1: 40, Y1: 100, X2: 160, Y2: 180}},
	}

	out := Draw(src, detections)

	// The label strip sits directly above the box.
	assert.Equal(t, classPalette[int(taxonomy.ClassMissingHole)], out.RGBAAt(41, 95))
}

func TestDrawFrameStatusBannerColors(t *testing.T) {
	t.Parallel()

	src := image.NewRGBA(image.Rect(0, 0, 320, 240))

	skipped := DrawFrameStatus(src, 3, 0, false)
	assert.Equal(t, bannerSkipped, skipped.RGBAAt(0, 0))

	clean := DrawFrameStatus(src, 7, 0, true)
	assert.Equal(t, bannerClean, clean.RGBAAt(0, 0))

	defective := DrawFrameStatus(src, 7, 2, true)
	assert.Equal(t, bannerDefect, defective.RGBAAt(0, 0))
}

func TestDrawFrameStatusCopiesFrame(t *testing.T) {
	t.Parallel()

	src := image.NewRGBA(image.Rect(0, 0, 64, 64))
	out := DrawFrameStatus(src, 1, 0, true)

	require.NotSame(t, src, out)
	assert.Equal(t, color.RGBA{}, src.RGBAAt(0, 0))
}
