package detector

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	ort "github.com/yalue/onnxruntime_go"
	"golang.org/x/sync/semaphore"

	"github.com/pcbvision/aoi-go/internal/conf"
	"github.com/pcbvision/aoi-go/internal/errors"
	"github.com/pcbvision/aoi-go/internal/taxonomy"
)

// onnxDetector runs inference through ONNX Runtime with preallocated
// input and output tensors bound to a single session.
type onnxDetector struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	outputDims   []int
	inputSize    int
	layout       tensorLayout
	modelPath    string
	sem          *semaphore.Weighted
}

func newONNXDetector(settings *conf.Settings, modelPath string) (*onnxDetector, error) {
	start := time.Now()

	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, errors.New(err).
				Category(errors.CategoryModelInit).
				ModelContext(modelPath, settings.Detector.InputSize).
				Context("runtime", "onnxruntime").
				Build()
		}
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryModelLoad).
			ModelContext(modelPath, settings.Detector.InputSize).
			Timing("model-load", time.Since(start)).
			Build()
	}
	if len(inputs) != 1 || len(outputs) == 0 {
		return nil, errors.Newf("model must have one input and at least one output, got %d inputs and %d outputs",
			len(inputs), len(outputs)).
			Category(errors.CategoryModelInit).
			ModelContext(modelPath, settings.Detector.InputSize).
			Build()
	}

	inputSize, layout, err := resolveInputGeometry(inputs[0].Dimensions, settings.Detector.InputSize)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryModelInit).
			ModelContext(modelPath, settings.Detector.InputSize).
			Context("input_shape", []int64(inputs[0].Dimensions)).
			Build()
	}

	outputDims := make([]int, len(outputs[0].Dimensions))
	for i, dim := range outputs[0].Dimensions {
		if dim <= 0 {
			return nil, errors.Newf("model output dimension %d is dynamic, static export required", i).
				Category(errors.CategoryModelInit).
				ModelContext(modelPath, inputSize).
				Context("output_shape", []int64(outputs[0].Dimensions)).
				Build()
		}
		outputDims[i] = int(dim)
	}

	var inputShape ort.Shape
	if layout == layoutHWC {
		inputShape = ort.NewShape(1, int64(inputSize), int64(inputSize), 3)
	} else {
		inputShape = ort.NewShape(1, 3, int64(inputSize), int64(inputSize))
	}

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryModelInit).
			ModelContext(modelPath, inputSize).
			Build()
	}

	outputTensor, err := ort.NewEmptyTensor[float32](outputs[0].Dimensions)
	if err != nil {
		inputTensor.Destroy()
		return nil, errors.New(err).
			Category(errors.CategoryModelInit).
			ModelContext(modelPath, inputSize).
			Build()
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, errors.New(err).
			Category(errors.CategoryModelInit).
			ModelContext(modelPath, inputSize).
			Timing("model-init", time.Since(start)).
			Build()
	}

	log.Info("ONNX model initialized",
		slog.String("model", modelPath),
		slog.Int("input_size", inputSize),
		slog.Any("output_shape", outputDims),
		slog.Duration("duration", time.Since(start)))

	return &onnxDetector{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		outputDims:   outputDims,
		inputSize:    inputSize,
		layout:       layout,
		modelPath:    modelPath,
		sem:          newDetectorSemaphore(),
	}, nil
}

// resolveInputGeometry derives the square input size and channel layout
// from the model's declared input shape, falling back to the configured
// size when the export uses dynamic dimensions.
func resolveInputGeometry(shape ort.Shape, configuredSize int) (int, tensorLayout, error) {
	if len(shape) != 4 {
		return 0, layoutCHW, fmt.Errorf("expected 4 input dimensions, got %d", len(shape))
	}

	layout := layoutCHW
	heightDim, widthDim := 2, 3
	switch {
	case shape[1] == 3:
		// channel first
	case shape[3] == 3:
		layout = layoutHWC
		heightDim, widthDim = 1, 2
	default:
		return 0, layoutCHW, fmt.Errorf("cannot locate channel dimension in input shape %v", []int64(shape))
	}

	size := configuredSize
	if size <= 0 {
		size = conf.DefaultModelInputSize
	}
	if shape[heightDim] > 0 {
		if shape[heightDim] != shape[widthDim] {
			return 0, layout, fmt.Errorf("non-square input %dx%d not supported", shape[heightDim], shape[widthDim])
		}
		size = int(shape[heightDim])
	}

	return size, layout, nil
}

func (d *onnxDetector) Detect(ctx context.Context, img image.Image, confThreshold, iouThreshold float64) ([]taxonomy.RawDetection, error) {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryCancellation).
			Context("operation", "detect").
			Build()
	}
	defer d.sem.Release(1)

	lb := fillInput(d.inputTensor.GetData(), img, d.inputSize, d.layout)

	if err := d.session.Run(); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryDetection).
			ModelContext(d.modelPath, d.inputSize).
			Build()
	}

	candidates, err := decodeOutput(d.outputTensor.GetData(), d.outputDims, confThreshold, taxonomy.NumClasses)
	if err != nil {
		return nil, err
	}

	return scaleToImage(nonMaxSuppression(candidates, iouThreshold), lb), nil
}

func (d *onnxDetector) Close() error {
	if d.inputTensor != nil {
		d.inputTensor.Destroy()
		d.inputTensor = nil
	}
	if d.outputTensor != nil {
		d.outputTensor.Destroy()
		d.outputTensor = nil
	}
	if d.session != nil {
		d.session.Destroy()
		d.session = nil
	}
	return nil
}
