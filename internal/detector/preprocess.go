package detector

import (
	"image"
	"math"

	"github.com/nfnt/resize"
)

// tensorLayout is the channel ordering of the model input tensor. ONNX
// exports use channel first, TensorFlow Lite exports use channel last.
type tensorLayout int

const (
	layoutCHW tensorLayout = iota
	layoutHWC
)

// padValue is the gray fill for letterbox borders, matching the value
// the model was trained with.
const padValue = float32(114.0 / 255.0)

// letterbox records how an image was fitted into the square model input
// so detections can be mapped back to source pixel coordinates.
type letterbox struct {
	scale      float64
	padX, padY float64
	srcW, srcH int
	inputSize  int
}

// toSource maps a model input coordinate pair back into source image
// space, clamped to the image bounds.
func (lb letterbox) toSource(x, y float64) (float64, float64) {
	sx := (x - lb.padX) / lb.scale
	sy := (y - lb.padY) / lb.scale
	return clamp(sx, 0, float64(lb.srcW)), clamp(sy, 0, float64(lb.srcH))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// makeInput allocates a letterboxed input tensor for the image.
func makeInput(img image.Image, size int, layout tensorLayout) ([]float32, letterbox) {
	data := make([]float32, 3*size*size)
	lb := fillInput(data, img, size, layout)
	return data, lb
}

// fillInput writes the letterboxed image into dst, which must hold
// 3*size*size values. The image is scaled preserving aspect ratio,
// centered, normalized to [0,1] and padded with the training fill. dst
// is typically the interpreter's own input buffer so per frame
// allocations stay limited to the resize step.
func fillInput(dst []float32, img image.Image, size int, layout tensorLayout) letterbox {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	scale := math.Min(float64(size)/float64(srcW), float64(size)/float64(srcH))
	scaledW := max(1, int(math.Round(float64(srcW)*scale)))
	scaledH := max(1, int(math.Round(float64(srcH)*scale)))

	lb := letterbox{
		scale:     scale,
		padX:      float64(size-scaledW) / 2,
		padY:      float64(size-scaledH) / 2,
		srcW:      srcW,
		srcH:      srcH,
		inputSize: size,
	}

	scaled := img
	if scaledW != srcW || scaledH != srcH {
		scaled = resize.Resize(uint(scaledW), uint(scaledH), img, resize.Lanczos3)
	}

	for i := range dst {
		dst[i] = padValue
	}

	offX := int(lb.padX)
	offY := int(lb.padY)
	plane := size * size
	scaledBounds := scaled.Bounds()

	for y := 0; y < scaledH; y++ {
		for x := 0; x < scaledW; x++ {
			r, g, b, _ := scaled.At(scaledBounds.Min.X+x, scaledBounds.Min.Y+y).RGBA()

			rNorm := float32(r) / 65535.0
			gNorm := float32(g) / 65535.0
			bNorm := float32(b) / 65535.0

			tx, ty := offX+x, offY+y
			switch layout {
			case layoutHWC:
				base := (ty*size + tx) * 3
				dst[base] = rNorm
				dst[base+1] = gNorm
				dst[base+2] = bNorm
			default:
				idx := ty*size + tx
				dst[idx] = rNorm
				dst[plane+idx] = gNorm
				dst[2*plane+idx] = bNorm
			}
		}
	}

	return lb
}
