// Package annotate burns detection boxes and labels into images for the
// review artifacts.
package annotate

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/pcbvision/aoi-go/internal/taxonomy"
)

// outlineWidth is the box border thickness in pixels.
const outlineWidth = 2

// classPalette assigns each defect class a stable box color so repeated
// inspections of the same board are visually comparable.
var classPalette = [taxonomy.NumClasses]color.RGBA{
	{R: 255, G: 56, B: 56, A: 255},   // falsecopper
	{R: 255, G: 157, B: 151, A: 255}, // missinghole
	{R: 255, G: 112, B: 31, A: 255},  // mousebite
	{R: 255, G: 178, B: 29, A: 255},  // opencircuit
	{R: 207, G: 210, B: 49, A: 255},  // pinhole
	{R: 72, G: 249, B: 10, A: 255},   // scratch
	{R: 61, G: 219, B: 134, A: 255},  // shortcircuit
	{R: 26, G: 147, B: 52, A: 255},   // spur
}

// unknownColor is used for detections outside the known taxonomy.
var unknownColor = color.RGBA{R: 200, G: 200, B: 200, A: 255}

// Draw copies the image and renders each detection as an outlined box
// with a "<label> <confidence>" tag. The input image is not modified.
func Draw(img image.Image, detections []taxonomy.Detection) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)

	for i := range detections {
		drawDetection(out, &detections[i])
	}
	return out
}

func classColor(class taxonomy.Class) color.RGBA {
	if class.Known() {
		return classPalette[int(class)]
	}
	return unknownColor
}

func drawDetection(out *image.RGBA, det *taxonomy.Detection) {
	bounds := out.Bounds()
	c := classColor(det.Class)

	rect := image.Rect(
		clampInt(int(math.Round(det.Box.X1)), bounds.Min.X, bounds.Max.X),
		clampInt(int(math.Round(det.Box.Y1)), bounds.Min.Y, bounds.Max.Y),
		clampInt(int(math.Round(det.Box.X2)), bounds.Min.X, bounds.Max.X),
		clampInt(int(math.Round(det.Box.Y2)), bounds.Min.Y, bounds.Max.Y),
	)
	if rect.Empty() {
		return
	}

	drawOutline(out, rect, c)
	drawLabel(out, rect, fmt.Sprintf("%s %.2f", det.Class.Display(), det.Confidence), c)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// drawOutline draws the four border strips of rect.
func drawOutline(out *image.RGBA, rect image.Rectangle, c color.RGBA) {
	src := image.NewUniform(c)
	w := outlineWidth

	top := image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, min(rect.Min.Y+w, rect.Max.Y))
	bottom := image.Rect(rect.Min.X, max(rect.Max.Y-w, rect.Min.Y), rect.Max.X, rect.Max.Y)
	left := image.Rect(rect.Min.X, rect.Min.Y, min(rect.Min.X+w, rect.Max.X), rect.Max.Y)
	right := image.Rect(max(rect.Max.X-w, rect.Min.X), rect.Min.Y, rect.Max.X, rect.Max.Y)

	for _, strip := range []image.Rectangle{top, bottom, left, right} {
		draw.Draw(out, strip, src, image.Point{}, draw.Src)
	}
}

// drawLabel renders the tag on a filled background above the box, or
// inside its top edge when there is no room above.
func drawLabel(out *image.RGBA, rect image.Rectangle, label string, c color.RGBA) {
	face := basicfont.Face7x13
	labelW := font.MeasureString(face, label).Ceil() + 4
	labelH := face.Metrics().Height.Ceil() + 2

	labelRect := image.Rect(rect.Min.X, rect.Min.Y-labelH, rect.Min.X+labelW, rect.Min.Y)
	if labelRect.Min.Y < out.Bounds().Min.Y {
		labelRect = labelRect.Add(image.Pt(0, labelH))
	}
	labelRect = labelRect.Intersect(out.Bounds())
	if labelRect.Empty() {
		return
	}

	draw.Draw(out, labelRect, image.NewUniform(c), image.Point{}, draw.Src)

	drawer := font.Drawer{
		Dst:  out,
		Src:  image.NewUniform(labelTextColor(c)),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(labelRect.Min.X + 2),
			Y: fixed.I(labelRect.Max.Y - 3),
		},
	}
	drawer.DrawString(label)
}

// labelTextColor picks black or white text for contrast against the
// label background.
func labelTextColor(bg color.RGBA) color.RGBA {
	// Rec. 601 luma.
	luma := 0.299*float64(bg.R) + 0.587*float64(bg.G) + 0.114*float64(bg.B)
	if luma > 140 {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: 255, G: 255, B: 255, A: 255}
}

// Banner colors for frame status overlays.
var (
	bannerSkipped = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	bannerClean   = color.RGBA{R: 26, G: 147, B: 52, A: 255}
	bannerDefect  = color.RGBA{R: 255, G: 56, B: 56, A: 255}
)

// DrawFrameStatus copies the frame and stamps a status banner into its
// top-left corner. Sampled frames report their detection count, skipped
// frames carry only the pass-through marker.
func DrawFrameStatus(img *image.RGBA, frameIndex, detectionCount int, sampled bool) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)

	var text string
	var c color.RGBA
	switch {
	case !sampled:
		text = fmt.Sprintf("Frame %d: skipped", frameIndex)
		c = bannerSkipped
	case detectionCount == 0:
		text = fmt.Sprintf("Frame %d: OK", frameIndex)
		c = bannerClean
	default:
		text = fmt.Sprintf("Frame %d: %d defect(s)", frameIndex, detectionCount)
		c = bannerDefect
	}

	face := basicfont.Face7x13
	bannerW := font.MeasureString(face, text).Ceil() + 8
	bannerH := face.Metrics().Height.Ceil() + 6

	bannerRect := image.Rect(bounds.Min.X, bounds.Min.Y,
		bounds.Min.X+bannerW, bounds.Min.Y+bannerH).Intersect(bounds)
	if bannerRect.Empty() {
		return out
	}

	draw.Draw(out, bannerRect, image.NewUniform(c), image.Point{}, draw.Src)

	drawer := font.Drawer{
		Dst:  out,
		Src:  image.NewUniform(labelTextColor(c)),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(bannerRect.Min.X + 4),
			Y: fixed.I(bannerRect.Max.Y - 5),
		},
	}
	drawer.DrawString(text)
	return out
}
