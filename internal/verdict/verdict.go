// Package verdict holds the pure policy functions that turn detections into
// inspection outcomes. All policies are deterministic for a given detector
// output.
package verdict

import (
	"github.com/pcbvision/aoi-go/internal/taxonomy"
)

// Status is the outcome of an inspection or of a single frame.
type Status string

const (
	StatusPass         Status = "PASS"
	StatusFail         Status = "FAIL"
	StatusQuestionable Status = "QUESTIONABLE"
	StatusError        Status = "ERROR"
)

// NoDefect is the primary defect name reported for a clean board.
const NoDefect = "None"

// Density policy thresholds. A video fails outright above the fail
// threshold and is flagged for manual review above the questionable one.
const (
	DensityFailThreshold         = 0.30
	DensityQuestionableThreshold = 0.15
)

// ForImage applies the binary policy: any detection fails the board.
func ForImage(detections []taxonomy.Detection) Status {
	if len(detections) > 0 {
		return StatusFail
	}
	return StatusPass
}

// PrimaryDefect returns the display name of the highest-confidence
// detection. Ties keep the first detection encountered, matching the
// detector's output order. Clean boards report NoDefect.
func PrimaryDefect(detections []taxonomy.Detection) string {
	if len(detections) == 0 {
		return NoDefect
	}

	primary := detections[0]
	for _, det := range detections[1:] {
		if det.Confidence > primary.Confidence {
			primary = det
		}
	}
	return primary.Class.Display()
}

// Density returns the defect frame density over the processed frames.
// A zero processed count yields zero density so that empty streams pass.
func Density(defectFrames, processedFrames int) float64 {
	if processedFrames <= 0 {
		return 0
	}
	return float64(defectFrames) / float64(processedFrames)
}

// ForVideo classifies a defect frame density.
func ForVideo(density float64) Status {
	switch {
	case density > DensityFailThreshold:
		return StatusFail
	case density > DensityQuestionableThreshold:
		return StatusQuestionable
	default:
		return StatusPass
	}
}

// FramePolicy selects the per-frame sub-verdict rule.
type FramePolicy int

const (
	// FailOnAny marks every frame with at least one detection as FAIL.
	// This is the default rule.
	FailOnAny FramePolicy = iota

	// GradedByCount fails a frame only above three detections and marks
	// one to three detections as QUESTIONABLE.
	GradedByCount
)

// FramePolicyFromSettings maps the graded-verdicts toggle to a policy.
func FramePolicyFromSettings(graded bool) FramePolicy {
	if graded {
		return GradedByCount
	}
	return FailOnAny
}

// ForFrame applies the policy to a frame's detection count.
func (p FramePolicy) ForFrame(detectionCount int) Status {
	if detectionCount == 0 {
		return StatusPass
	}

	switch p {
	case GradedByCount:
		if detectionCount > 3 {
			return StatusFail
		}
		return StatusQuestionable
	default:
		return StatusFail
	}
}

// DominantDefect returns the display name of the defect class with the
// most occurrences across all detections of a video job. Classes tied
// on occurrence count are ranked by average confidence; a full tie goes
// to the class seen first, so the result is deterministic for a given
// detection sequence. Returns NoDefect when there are no detections.
func DominantDefect(detections []taxonomy.Detection) string {
	if len(detections) == 0 {
		return NoDefect
	}

	type tally struct {
		count   int
		confSum float64
	}
	tallies := make(map[taxonomy.Class]*tally)
	var order []taxonomy.Class
	for i := range detections {
		entry := tallies[detections[i].Class]
		if entry == nil {
			entry = &tally{}
			tallies[detections[i].Class] = entry
			order = append(order, detections[i].Class)
		}
		entry.count++
		entry.confSum += detections[i].Confidence
	}

	best := order[0]
	bestTally := tallies[best]
	for _, class := range order[1:] {
		entry := tallies[class]
		avgBest := bestTally.confSum / float64(bestTally.count)
		avg := entry.confSum / float64(entry.count)
		if entry.count > bestTally.count ||
			(entry.count == bestTally.count && avg > avgBest) {
			best, bestTally = class, entry
		}
	}
	return best.Display()
}
