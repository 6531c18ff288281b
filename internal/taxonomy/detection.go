package taxonomy

import "math"

// RawDetection is the unprocessed output of a single detector box, in source
// image pixel coordinates.
type RawDetection struct {
	ClassID    int
	Confidence float64
	X1, Y1     float64
	X2, Y2     float64
}

// Box is an axis-aligned bounding box in source image pixel coordinates.
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Width returns the box width.
func (b Box) Width() float64 {
	return b.X2 - b.X1
}

// Height returns the box height.
func (b Box) Height() float64 {
	return b.Y2 - b.Y1
}

// Area returns the box area.
func (b Box) Area() float64 {
	return b.Width() * b.Height()
}

// IoU returns the intersection over union of two boxes, 0 when they do not
// overlap.
func (b Box) IoU(other Box) float64 {
	interX1 := math.Max(b.X1, other.X1)
	interY1 := math.Max(b.Y1, other.Y1)
	interX2 := math.Min(b.X2, other.X2)
	interY2 := math.Min(b.Y2, other.Y2)

	interW := interX2 - interX1
	interH := interY2 - interY1
	if interW <= 0 || interH <= 0 {
		return 0
	}

	interArea := interW * interH
	union := b.Area() + other.Area() - interArea
	if union <= 0 {
		return 0
	}
	return interArea / union
}

// Detection is a normalized defect detection. Confidence is rounded to three
// decimals, box coordinates and area to one decimal. Area is computed from
// the unrounded coordinates before rounding.
type Detection struct {
	Class      Class   `json:"type"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"bbox"`
	Area       float64 `json:"area"`
}

// Round rounds v to the given number of decimal places, half away from zero.
func Round(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}

// Normalize converts a raw detector box into a Detection, applying the
// rounding contract.
func Normalize(raw RawDetection) Detection {
	area := (raw.X2 - raw.X1) * (raw.Y2 - raw.Y1)
	return Detection{
		Class:      Class(raw.ClassID),
		Confidence: Round(raw.Confidence, 3),
		Box: Box{
			X1: Round(raw.X1, 1),
			Y1: Round(raw.Y1, 1),
			X2: Round(raw.X2, 1),
			Y2: Round(raw.Y2, 1),
		},
		Area: Round(area, 1),
	}
}

// NormalizeAll converts raw detector boxes in order, preserving the
// detector's output ordering.
func NormalizeAll(raws []RawDetection) []Detection {
	if len(raws) == 0 {
		return nil
	}
	detections := make([]Detection, 0, len(raws))
	for _, raw := range raws {
		detections = append(detections, Normalize(raw))
	}
	return detections
}
