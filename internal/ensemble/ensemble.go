// Package ensemble implements the multi-pass quality scorer. The same
// detector model runs at three confidence thresholds over one image, and
// the combined pass statistics fold into a weighted defect score with a
// severity classification.
package ensemble

import (
	"context"
	"image"

	"github.com/pcbvision/aoi-go/internal/errors"
	"github.com/pcbvision/aoi-go/internal/taxonomy"
)

// Detector runs the defect model over an image at the given thresholds.
// Implementations must be safe for sequential reuse across passes.
type Detector interface {
	Detect(ctx context.Context, img image.Image, confThreshold, iouThreshold float64) ([]taxonomy.RawDetection, error)
}

// Pass is one detector run at a fixed threshold pair.
type Pass struct {
	Name       string
	Confidence float64
	IoU        float64
}

// DefaultPasses returns the standard high, medium and low sensitivity
// passes. The medium pass drives the quality metrics, the high pass
// counts strong evidence, and the low pass measures raw density.
func DefaultPasses() [3]Pass {
	return [3]Pass{
		{Name: "high", Confidence: 0.75, IoU: 0.45},
		{Name: "medium", Confidence: 0.40, IoU: 0.45},
		{Name: "low", Confidence: 0.25, IoU: 0.45},
	}
}

// Quality is the severity classification of an assessed board.
type Quality string

const (
	QualityGood              Quality = "GOOD"
	QualityQuestionable      Quality = "QUESTIONABLE"
	QualityDefective         Quality = "DEFECTIVE"
	QualitySeverelyDefective Quality = "SEVERELY_DEFECTIVE"
)

// Distribution buckets the medium pass confidences into fractions.
type Distribution struct {
	High   float64 `json:"high"`
	Medium float64 `json:"medium"`
	Low    float64 `json:"low"`
}

// Metrics are the raw statistics gathered from the three passes.
type Metrics struct {
	HighConfidenceCount int          `json:"high_conf_count"`
	TotalDetections     int          `json:"total_detections"`
	AverageConfidence   float64      `json:"avg_confidence"`
	MaxConfidence       float64      `json:"max_confidence"`
	AreaCoverage        float64      `json:"area_coverage_ratio"`
	Distribution        Distribution `json:"confidence_distribution"`
}

// Components are the unweighted per-metric scores.
type Components struct {
	HighConfidence float64 `json:"high_confidence"`
	Density        float64 `json:"density"`
	AvgConfidence  float64 `json:"avg_confidence"`
	AreaCoverage   float64 `json:"area_coverage"`
}

// Assessment is the scored outcome of a multi-pass inspection.
type Assessment struct {
	Quality    Quality    `json:"quality"`
	Confidence float64    `json:"confidence"`
	Score      float64    `json:"score"`
	Metrics    Metrics    `json:"metrics"`
	Components Components `json:"components"`
}

// Metric weights for the combined score.
const (
	weightHighConfidence = 3.0
	weightDensity        = 2.0
	weightAvgConfidence  = 1.5
	weightAreaCoverage   = 2.5
)

// Confidence bucket boundaries for the distribution.
const (
	distributionHigh = 0.7
	distributionLow  = 0.4
)

// Scorer runs the ensemble passes against a single detector.
type Scorer struct {
	detector Detector
	passes   [3]Pass
}

// New returns a scorer using the default passes.
func New(detector Detector) *Scorer {
	return NewWithPasses(detector, DefaultPasses())
}

// NewWithPasses returns a scorer with custom threshold passes, ordered
// high, medium, low.
func NewWithPasses(detector Detector, passes [3]Pass) *Scorer {
	return &Scorer{detector: detector, passes: passes}
}

// Assess runs all passes over the image and evaluates the results.
// Passes run sequentially so a single model instance can serve them.
func (s *Scorer) Assess(ctx context.Context, img image.Image) (*Assessment, error) {
	var results [3][]taxonomy.RawDetection
	for i, pass := range s.passes {
		detections, err := s.detector.Detect(ctx, img, pass.Confidence, pass.IoU)
		if err != nil {
			return nil, errors.New(err).
				Category(errors.CategoryDetection).
				Context("pass", pass.Name).
				Context("confidence_threshold", pass.Confidence).
				Build()
		}
		results[i] = detections
	}

	bounds := img.Bounds()
	assessment := Evaluate(results[0], results[1], results[2], float64(bounds.Dx()*bounds.Dy()))
	return &assessment, nil
}

// Evaluate folds the three pass results into an assessment. The image
// area is in squared pixels of the inspected image.
func Evaluate(high, medium, low []taxonomy.RawDetection, imageArea float64) Assessment {
	metrics := Metrics{
		HighConfidenceCount: len(high),
		TotalDetections:     len(low),
	}

	if len(medium) == 0 {
		// No medium pass evidence at all puts the full distribution
		// mass into the low bucket.
		metrics.Distribution = Distribution{Low: 1.0}
	} else {
		var confSum, areaSum float64
		for _, det := range medium {
			confSum += det.Confidence
			if det.Confidence > metrics.MaxConfidence {
				metrics.MaxConfidence = det.Confidence
			}
			areaSum += (det.X2 - det.X1) * (det.Y2 - det.Y1)
		}
		metrics.AverageConfidence = confSum / float64(len(medium))
		if imageArea > 0 {
			metrics.AreaCoverage = areaSum / imageArea
		}
		metrics.Distribution = bucketConfidences(medium)
	}

	components := Components{
		HighConfidence: scoreHighConfidence(metrics.HighConfidenceCount),
		Density:        scoreDensity(metrics.TotalDetections),
		AvgConfidence:  scoreAverageConfidence(metrics.AverageConfidence),
		AreaCoverage:   scoreAreaCoverage(metrics.AreaCoverage),
	}

	score := weightHighConfidence*components.HighConfidence +
		weightDensity*components.Density +
		weightAvgConfidence*components.AvgConfidence +
		weightAreaCoverage*components.AreaCoverage

	quality, confidence := classify(score)

	return Assessment{
		Quality:    quality,
		Confidence: confidence,
		Score:      score,
		Metrics:    metrics,
		Components: components,
	}
}

func bucketConfidences(detections []taxonomy.RawDetection) Distribution {
	var d Distribution
	for _, det := range detections {
		switch {
		case det.Confidence > distributionHigh:
			d.High++
		case det.Confidence < distributionLow:
			d.Low++
		default:
			d.Medium++
		}
	}
	total := float64(len(detections))
	d.High /= total
	d.Medium /= total
	d.Low /= total
	return d
}

func scoreHighConfidence(count int) float64 {
	switch {
	case count >= 5:
		return 4.0
	case count >= 3:
		return 3.0
	case count >= 1:
		return 1.5
	default:
		return 0
	}
}

func scoreDensity(total int) float64 {
	switch {
	case total >= 15:
		return 3.0
	case total >= 8:
		return 2.0
	case total >= 4:
		return 1.0
	default:
		return 0
	}
}

func scoreAverageConfidence(avg float64) float64 {
	switch {
	case avg >= 0.7:
		return 2.5
	case avg >= 0.5:
		return 1.5
	case avg >= 0.3:
		return 0.5
	default:
		return 0
	}
}

func scoreAreaCoverage(ratio float64) float64 {
	switch {
	case ratio >= 0.05:
		return 4.0
	case ratio >= 0.02:
		return 2.0
	case ratio >= 0.01:
		return 1.0
	default:
		return 0
	}
}

func classify(score float64) (Quality, float64) {
	switch {
	case score <= 2.0:
		return QualityGood, 0.95
	case score <= 5.0:
		return QualityQuestionable, 0.75
	case score <= 10.0:
		return QualityDefective, 0.85
	default:
		return QualitySeverelyDefective, 0.95
	}
}
