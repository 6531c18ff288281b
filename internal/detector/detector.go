// Package detector runs the PCB defect model over images. Two inference
// backends are supported, ONNX Runtime for .onnx models and TensorFlow
// Lite for .tflite models, selected by the model file extension. Both
// decode YOLO style output tensors into pixel space detections.
package detector

import (
	"context"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/semaphore"

	"github.com/pcbvision/aoi-go/internal/conf"
	"github.com/pcbvision/aoi-go/internal/cpuspec"
	"github.com/pcbvision/aoi-go/internal/errors"
	"github.com/pcbvision/aoi-go/internal/logging"
	"github.com/pcbvision/aoi-go/internal/taxonomy"
)

// Detector runs defect inference over a single image. Implementations
// serialize interpreter access internally, so one instance can be shared
// across goroutines.
type Detector interface {
	// Detect returns raw detections in pixel coordinates of the input
	// image, thresholded at confThreshold and suppressed at iouThreshold.
	Detect(ctx context.Context, img image.Image, confThreshold, iouThreshold float64) ([]taxonomy.RawDetection, error)

	// Close releases interpreter resources. The detector must not be
	// used afterwards.
	Close() error
}

// New creates a detector for the model configured in settings. The
// backend is chosen by the model file extension.
func New(settings *conf.Settings) (Detector, error) {
	modelPath, err := resolveModelPath(settings.Detector.ModelPath)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(modelPath)) {
	case ".onnx":
		return newONNXDetector(settings, modelPath)
	case ".tflite":
		return newTFLiteDetector(settings, modelPath)
	default:
		return nil, errors.Newf("unsupported model format: %s", filepath.Ext(modelPath)).
			Category(errors.CategoryModelInit).
			ModelContext(modelPath, settings.Detector.InputSize).
			Build()
	}
}

// resolveModelPath expands environment variables and a leading ~ in the
// configured model path.
func resolveModelPath(modelPath string) (string, error) {
	if modelPath == "" {
		return "", errors.Newf("no detector model path configured").
			Category(errors.CategoryConfiguration).
			Build()
	}

	modelPath = os.ExpandEnv(modelPath)

	if strings.HasPrefix(modelPath, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", errors.New(err).
				Category(errors.CategoryFileIO).
				Context("path", modelPath).
				Build()
		}
		modelPath = filepath.Join(homeDir, modelPath[2:])
	}

	return modelPath, nil
}

// threadCount determines the interpreter thread count from the
// configured value and the host CPU. Zero selects the optimal count for
// the detected CPU, preferring performance cores on hybrid parts.
func threadCount(configured int) int {
	systemCPUCount := runtime.NumCPU()

	if configured == 0 {
		spec := cpuspec.GetCPUSpec()
		if optimal := spec.GetOptimalThreadCount(); optimal > 0 {
			return min(optimal, systemCPUCount)
		}
		return systemCPUCount
	}

	if configured > systemCPUCount {
		return systemCPUCount
	}
	return configured
}

// newDetectorSemaphore returns the single slot semaphore serializing
// interpreter access.
func newDetectorSemaphore() *semaphore.Weighted {
	return semaphore.NewWeighted(1)
}

var log *slog.Logger

func init() {
	log = logging.ForService("detector")
	if log == nil {
		log = slog.Default().With("service", "detector")
	}
}
