package detector

import (
	"sort"

	"github.com/pcbvision/aoi-go/internal/errors"
	"github.com/pcbvision/aoi-go/internal/taxonomy"
)

// candidate is a thresholded detection in model input coordinates.
type candidate struct {
	classID        int
	confidence     float64
	x1, y1, x2, y2 float64
}

// decodeOutput converts a raw output tensor into candidates above the
// confidence threshold. Three tensor layouts are recognized:
//
//	[1, 4+C, N]  anchor scores per attribute row (YOLOv8 ONNX export)
//	[1, N, 4+C]  one anchor per row
//	[1, N, 6]    end-to-end export rows of x1,y1,x2,y2,score,class
//
// Box coordinates stay in model input space, mapping back to the source
// image happens in scaleToImage.
func decodeOutput(data []float32, dims []int, confThreshold float64, numClasses int) ([]candidate, error) {
	if len(dims) != 3 || dims[0] != 1 {
		return nil, unsupportedShapeError(dims)
	}

	attrs := 4 + numClasses
	switch {
	case dims[1] == attrs:
		return decodeAttributeMajor(data, dims[2], confThreshold, numClasses), nil
	case dims[2] == 6:
		return decodeEndToEnd(data, dims[1], confThreshold), nil
	case dims[2] == attrs:
		return decodeAnchorMajor(data, dims[1], confThreshold, numClasses), nil
	default:
		return nil, unsupportedShapeError(dims)
	}
}

func unsupportedShapeError(dims []int) error {
	return errors.Newf("unsupported model output shape %v", dims).
		Category(errors.CategoryDetection).
		Context("output_dims", dims).
		Build()
}

// decodeAttributeMajor reads a [4+C, N] tensor where each attribute is a
// contiguous row of N anchors. Boxes are center based.
func decodeAttributeMajor(data []float32, anchors int, confThreshold float64, numClasses int) []candidate {
	var out []candidate
	for a := 0; a < anchors; a++ {
		bestClass, bestScore := -1, confThreshold
		for c := 0; c < numClasses; c++ {
			if score := float64(data[(4+c)*anchors+a]); score > bestScore {
				bestClass, bestScore = c, score
			}
		}
		if bestClass < 0 {
			continue
		}

		cx := float64(data[0*anchors+a])
		cy := float64(data[1*anchors+a])
		w := float64(data[2*anchors+a])
		h := float64(data[3*anchors+a])
		out = append(out, candidate{
			classID:    bestClass,
			confidence: bestScore,
			x1:         cx - w/2,
			y1:         cy - h/2,
			x2:         cx + w/2,
			y2:         cy + h/2,
		})
	}
	return out
}

// decodeAnchorMajor reads a [N, 4+C] tensor with one center based anchor
// per row.
func decodeAnchorMajor(data []float32, anchors int, confThreshold float64, numClasses int) []candidate {
	stride := 4 + numClasses
	var out []candidate
	for a := 0; a < anchors; a++ {
		row := data[a*stride:]
		bestClass, bestScore := -1, confThreshold
		for c := 0; c < numClasses; c++ {
			if score := float64(row[4+c]); score > bestScore {
				bestClass, bestScore = c, score
			}
		}
		if bestClass < 0 {
			continue
		}

		cx, cy := float64(row[0]), float64(row[1])
		w, h := float64(row[2]), float64(row[3])
		out = append(out, candidate{
			classID:    bestClass,
			confidence: bestScore,
			x1:         cx - w/2,
			y1:         cy - h/2,
			x2:         cx + w/2,
			y2:         cy + h/2,
		})
	}
	return out
}

// decodeEndToEnd reads [N, 6] rows from an export with built-in NMS.
// Rows are corner based and already unique per object, running NMS over
// them again is harmless.
func decodeEndToEnd(data []float32, rows int, confThreshold float64) []candidate {
	var out []candidate
	for r := 0; r < rows; r++ {
		row := data[r*6:]
		score := float64(row[4])
		if score <= confThreshold {
			continue
		}
		out = append(out, candidate{
			classID:    int(row[5]),
			confidence: score,
			x1:         float64(row[0]),
			y1:         float64(row[1]),
			x2:         float64(row[2]),
			y2:         float64(row[3]),
		})
	}
	return out
}

// nonMaxSuppression greedily keeps the highest confidence candidate per
// overlapping cluster, comparing boxes within the same class only. The
// result is ordered by descending confidence.
func nonMaxSuppression(candidates []candidate, iouThreshold float64) []candidate {
	if len(candidates) <= 1 {
		return candidates
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].confidence > candidates[j].confidence
	})

	kept := make([]candidate, 0, len(candidates))
	suppressed := make([]bool, len(candidates))
	for i := range candidates {
		if suppressed[i] {
			continue
		}
		kept = append(kept, candidates[i])
		for j := i + 1; j < len(candidates); j++ {
			if suppressed[j] || candidates[j].classID != candidates[i].classID {
				continue
			}
			if boxOf(candidates[i]).IoU(boxOf(candidates[j])) > iouThreshold {
				suppressed[j] = true
			}
		}
	}
	return kept
}

func boxOf(c candidate) taxonomy.Box {
	return taxonomy.Box{X1: c.x1, Y1: c.y1, X2: c.x2, Y2: c.y2}
}

// scaleToImage maps candidates from model input space back to source
// image pixels, clamping to the image bounds.
func scaleToImage(candidates []candidate, lb letterbox) []taxonomy.RawDetection {
	if len(candidates) == 0 {
		return nil
	}

	detections := make([]taxonomy.RawDetection, 0, len(candidates))
	for _, c := range candidates {
		x1, y1 := lb.toSource(c.x1, c.y1)
		x2, y2 := lb.toSource(c.x2, c.y2)
		detections = append(detections, taxonomy.RawDetection{
			ClassID:    c.classID,
			Confidence: c.confidence,
			X1:         x1,
			Y1:         y1,
			X2:         x2,
			Y2:         y2,
		})
	}
	return detections
}
