package detector

import (
	"image"
	"image/color"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/pcbvision/aoi-go/internal/conf"
	"github.com/pcbvision/aoi-go/internal/errors"
	"github.com/pcbvision/aoi-go/internal/taxonomy"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestFillInputLetterboxGeometry(t *testing.T) {
	t.Parallel()

	img := solidImage(200, 100, color.RGBA{R: 255, A: 255})
	_, lb := makeInput(img, 640, layoutCHW)

	assert.InDelta(t, 3.2, lb.scale, 1e-9)
	assert.InDelta(t, 0, lb.padX, 1e-9)
	assert.InDelta(t, 160, lb.padY, 1e-9)
	assert.Equal(t, 200, lb.srcW)
	assert.Equal(t, 100, lb.srcH)

	x, y := lb.toSource(0, 160)
	assert.InDelta(t, 0, x, 1e-9)
	assert.InDelta(t, 0, y, 1e-9)

	x, y = lb.toSource(640, 480)
	assert.InDelta(t, 200, x, 1e-9)
	assert.InDelta(t, 100, y, 1e-9)

	// Coordinates in the pad region clamp to the image bounds.
	x, y = lb.toSource(320, 0)
	assert.InDelta(t, 100, x, 1e-9)
	assert.InDelta(t, 0, y, 1e-9)
}

func TestFillInputChannelLayouts(t *testing.T) {
	t.Parallel()

	const size = 64
	img := solidImage(size, size, color.RGBA{R: 255, A: 255})

	chw, _ := makeInput(img, size, layoutCHW)
	require.Len(t, chw, 3*size*size)
	plane := size * size
	center := (size/2)*size + size/2
	assert.InDelta(t, 1.0, chw[center], 0.01)
	assert.InDelta(t, 0.0, chw[plane+center], 0.01)
	assert.InDelta(t, 0.0, chw[2*plane+center], 0.01)

	hwc, _ := makeInput(img, size, layoutHWC)
	base := ((size/2)*size + size/2) * 3
	assert.InDelta(t, 1.0, hwc[base], 0.01)
	assert.InDelta(t, 0.0, hwc[base+1], 0.01)
	assert.InDelta(t, 0.0, hwc[base+2], 0.01)
}

func TestFillInputPadsBorders(t *testing.T) {
	t.Parallel()

	// A wide image letterboxed into a square leaves padded rows on top.
	img := solidImage(100, 50, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	data, lb := makeInput(img, 100, layoutCHW)

	require.InDelta(t, 25, lb.padY, 1e-9)
	assert.InDelta(t, float64(padValue), float64(data[0]), 1e-6)
	assert.InDelta(t, 1.0, float64(data[50*100+50]), 0.01)
}

func TestDecodeOutputAttributeMajor(t *testing.T) {
	t.Parallel()

	const anchors = 3
	data := make([]float32, (4+taxonomy.NumClasses)*anchors)

	// First anchor: class 2 at 0.9, box centered at (100,100).
	data[0*anchors] = 100
	data[1*anchors] = 100
	data[2*anchors] = 20
	data[3*anchors] = 10
	data[(4+2)*anchors] = 0.9

	// Third anchor: class 7 at 0.6, box centered at (50,50).
	data[0*anchors+2] = 50
	data[1*anchors+2] = 50
	data[2*anchors+2] = 10
	data[3*anchors+2] = 10
	data[(4+7)*anchors+2] = 0.6

	candidates, err := decodeOutput(data, []int{1, 4 + taxonomy.NumClasses, anchors}, 0.25, taxonomy.NumClasses)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, 2, candidates[0].classID)
	assert.InDelta(t, 0.9, candidates[0].confidence, 1e-6)
	assert.InDelta(t, 90, candidates[0].x1, 1e-4)
	assert.InDelta(t, 95, candidates[0].y1, 1e-4)
	assert.InDelta(t, 110, candidates[0].x2, 1e-4)
	assert.InDelta(t, 105, candidates[0].y2, 1e-4)

	assert.Equal(t, 7, candidates[1].classID)
	assert.InDelta(t, 0.6, candidates[1].confidence, 1e-6)
}

func TestDecodeOutputAnchorMajor(t *testing.T) {
	t.Parallel()

	stride := 4 + taxonomy.NumClasses
	data := make([]float32, 2*stride)
	data[0], data[1], data[2], data[3] = 100, 100, 20, 10
	data[4] = 0.75 // class 0

	candidates, err := decodeOutput(data, []int{1, 2, stride}, 0.25, taxonomy.NumClasses)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, 0, candidates[0].classID)
	assert.InDelta(t, 90, candidates[0].x1, 1e-4)
	assert.InDelta(t, 110, candidates[0].x2, 1e-4)
}

func TestDecodeOutputEndToEnd(t *testing.T) {
	t.Parallel()

	data := []float32{
		10, 20, 30, 40, 0.8, 3,
		0, 0, 5, 5, 0.2, 1,
	}

	candidates, err := decodeOutput(data, []int{1, 2, 6}, 0.25, taxonomy.NumClasses)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	assert.Equal(t, 3, candidates[0].classID)
	assert.InDelta(t, 0.8, candidates[0].confidence, 1e-6)
	assert.InDelta(t, 10, candidates[0].x1, 1e-4)
	assert.InDelta(t, 40, candidates[0].y2, 1e-4)
}

func TestDecodeOutputUnsupportedShape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		dims []int
	}{
		{"two dimensions", []int{1, 8400}},
		{"batched output", []int{2, 12, 8400}},
		{"unknown attributes", []int{1, 5, 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := decodeOutput(make([]float32, 128), tt.dims, 0.25, taxonomy.NumClasses)
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryDetection))
		})
	}
}

func TestNonMaxSuppression(t *testing.T) {
	t.Parallel()

	overlapping := []candidate{
		{classID: 1, confidence: 0.8, x1: 10, y1: 10, x2: 110, y2: 110},
		{classID: 1, confidence: 0.9, x1: 0, y1: 0, x2: 100, y2: 100},
	}
	kept := nonMaxSuppression(overlapping, 0.45)
	require.Len(t, kept, 1)
	assert.InDelta(t, 0.9, kept[0].confidence, 1e-9)

	crossClass := []candidate{
		{classID: 1, confidence: 0.9, x1: 0, y1: 0, x2: 100, y2: 100},
		{classID: 2, confidence: 0.8, x1: 0, y1: 0, x2: 100, y2: 100},
	}
	assert.Len(t, nonMaxSuppression(crossClass, 0.45), 2)

	disjoint := []candidate{
		{classID: 1, confidence: 0.9, x1: 0, y1: 0, x2: 10, y2: 10},
		{classID: 1, confidence: 0.8, x1: 500, y1: 500, x2: 510, y2: 510},
	}
	assert.Len(t, nonMaxSuppression(disjoint, 0.45), 2)
}

func TestScaleToImageClamps(t *testing.T) {
	t.Parallel()

	lb := letterbox{scale: 3.2, padX: 0, padY: 160, srcW: 200, srcH: 100, inputSize: 640}

	detections := scaleToImage([]candidate{
		{classID: 4, confidence: 0.7, x1: -5, y1: 150, x2: 650, y2: 490},
	}, lb)
	require.Len(t, detections, 1)

	d := detections[0]
	assert.Equal(t, 4, d.ClassID)
	assert.InDelta(t, 0, d.X1, 1e-9)
	assert.InDelta(t, 0, d.Y1, 1e-9)
	assert.InDelta(t, 200, d.X2, 1e-9)
	assert.InDelta(t, 100, d.Y2, 1e-9)

	assert.Nil(t, scaleToImage(nil, lb))
}

func TestResolveInputGeometry(t *testing.T) {
	t.Parallel()

	size, layout, err := resolveInputGeometry(ort.NewShape(1, 3, 640, 640), 0)
	require.NoError(t, err)
	assert.Equal(t, 640, size)
	assert.Equal(t, layoutCHW, layout)

	size, layout, err = resolveInputGeometry(ort.NewShape(1, 320, 320, 3), 0)
	require.NoError(t, err)
	assert.Equal(t, 320, size)
	assert.Equal(t, layoutHWC, layout)

	// Dynamic spatial dimensions fall back to the configured size.
	size, _, err = resolveInputGeometry(ort.NewShape(1, 3, -1, -1), 416)
	require.NoError(t, err)
	assert.Equal(t, 416, size)

	// And to the default when nothing is configured.
	size, _, err = resolveInputGeometry(ort.NewShape(1, 3, -1, -1), 0)
	require.NoError(t, err)
	assert.Equal(t, conf.DefaultModelInputSize, size)

	_, _, err = resolveInputGeometry(ort.NewShape(1, 3, 640, 480), 0)
	assert.Error(t, err)

	_, _, err = resolveInputGeometry(ort.NewShape(1, 640, 640), 0)
	assert.Error(t, err)
}

func TestThreadCount(t *testing.T) {
	t.Parallel()

	cpus := runtime.NumCPU()

	assert.Equal(t, min(3, cpus), threadCount(3))
	assert.Equal(t, cpus, threadCount(cpus+10))

	auto := threadCount(0)
	assert.GreaterOrEqual(t, auto, 1)
	assert.LessOrEqual(t, auto, cpus)
}

func TestNewRejectsUnknownModelFormat(t *testing.T) {
	t.Parallel()

	settings := &conf.Settings{}
	settings.Detector.ModelPath = "models/pcb-defect.pb"

	_, err := New(settings)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryModelInit))
	assert.ErrorContains(t, err, "unsupported model format")
}

func TestNewRequiresModelPath(t *testing.T) {
	t.Parallel()

	_, err := New(&conf.Settings{})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestResolveModelPathExpandsEnv(t *testing.T) {
	t.Setenv("AOI_TEST_MODEL_DIR", "/opt/models")

	path, err := resolveModelPath("$AOI_TEST_MODEL_DIR/pcb-defect.onnx")
	require.NoError(t, err)
	assert.Equal(t, "/opt/models/pcb-defect.onnx", path)
}
