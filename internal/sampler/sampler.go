// Package sampler decides which video frames are processed, using a
// deterministic stride derived from the source frame rate.
package sampler

import (
	"math"

	"github.com/pcbvision/aoi-go/internal/errors"
)

// DefaultCoefficient is the fps multiplier used when no override is
// configured. At 10 fps it samples every 7th frame.
const DefaultCoefficient = 0.7

// Sampler selects frames by a fixed stride. Frame indices are 1-based and
// frame 1 is always sampled, so sampling is reproducible for a given frame
// rate regardless of stream length.
type Sampler struct {
	interval int
}

// New builds a Sampler for the given frame rate. The stride is
// max(1, floor(fps*coefficient)). A nonpositive fps is rejected before any
// processing starts.
func New(fps, coefficient float64) (*Sampler, error) {
	if fps <= 0 {
		return nil, errors.Newf("invalid frame rate %g", fps).
			Component("sampler").
			Category(errors.CategoryValidation).
			Context("fps", fps).
			Build()
	}
	if coefficient <= 0 {
		coefficient = DefaultCoefficient
	}

	interval := int(math.Floor(fps * coefficient))
	if interval < 1 {
		interval = 1
	}

	return &Sampler{interval: interval}, nil
}

// Interval returns the sampling stride in frames.
func (s *Sampler) Interval() int {
	return s.interval
}

// ShouldProcess reports whether the 1-based frame index is sampled.
func (s *Sampler) ShouldProcess(frame int) bool {
	return (frame-1)%s.interval == 0
}

// ProcessedCount returns how many of totalFrames frames the stride samples.
func (s *Sampler) ProcessedCount(totalFrames int) int {
	if totalFrames <= 0 {
		return 0
	}
	return (totalFrames + s.interval - 1) / s.interval
}
