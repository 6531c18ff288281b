package detector

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"runtime"
	"time"

	tflite "github.com/tphakala/go-tflite"
	"github.com/tphakala/go-tflite/delegates/xnnpack"
	"golang.org/x/sync/semaphore"

	"github.com/pcbvision/aoi-go/internal/conf"
	"github.com/pcbvision/aoi-go/internal/cpuspec"
	"github.com/pcbvision/aoi-go/internal/errors"
	"github.com/pcbvision/aoi-go/internal/taxonomy"
)

// tfliteDetector runs inference through the TensorFlow Lite interpreter,
// optionally accelerated by the XNNPACK delegate.
type tfliteDetector struct {
	interpreter  *tflite.Interpreter
	model        *tflite.Model
	outputDims   []int
	outputBuffer []float32
	inputSize    int
	layout       tensorLayout
	modelPath    string
	sem          *semaphore.Weighted
}

func newTFLiteDetector(settings *conf.Settings, modelPath string) (*tfliteDetector, error) {
	start := time.Now()

	modelData, err := os.ReadFile(modelPath) //nolint:gosec // G304: modelPath is from application settings
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryModelLoad).
			ModelContext(modelPath, settings.Detector.InputSize).
			Timing("model-file-read", time.Since(start)).
			Build()
	}

	model := tflite.NewModel(modelData)
	if model == nil {
		return nil, errors.Newf("cannot load TensorFlow Lite model").
			Category(errors.CategoryModelInit).
			ModelContext(modelPath, settings.Detector.InputSize).
			Context("model_size_mb", len(modelData)/1024/1024).
			Context("use_xnnpack", settings.Detector.UseXNNPACK).
			Build()
	}

	threads := threadCount(settings.Detector.Threads)

	options := tflite.NewInterpreterOptions()
	if settings.Detector.UseXNNPACK {
		delegate := xnnpack.New(xnnpack.DelegateOptions{NumThreads: int32(max(1, threads-1))}) //nolint:gosec // G115: thread count bounded by CPU count, safe conversion
		if delegate == nil {
			log.Warn("Failed to create XNNPACK delegate, falling back to default CPU")
			options.SetNumThread(threads)
		} else {
			options.AddDelegate(delegate)
			options.SetNumThread(1)
		}
	} else {
		options.SetNumThread(threads)
	}

	options.SetErrorReporter(func(msg string, userData any) {
		log.Error("TFLite error", slog.String("message", msg))
	}, nil)

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		model.Delete()
		return nil, errors.Newf("cannot create interpreter").
			Category(errors.CategoryModelInit).
			ModelContext(modelPath, settings.Detector.InputSize).
			Build()
	}
	if status := interpreter.AllocateTensors(); status != tflite.OK {
		interpreter.Delete()
		model.Delete()
		return nil, errors.Newf("tensor allocation failed").
			Category(errors.CategoryModelInit).
			ModelContext(modelPath, settings.Detector.InputSize).
			Build()
	}

	// The interpreter holds its own copy of the model data, reclaim the
	// file buffer before processing starts.
	runtime.GC()

	d := &tfliteDetector{
		interpreter: interpreter,
		model:       model,
		modelPath:   modelPath,
		sem:         newDetectorSemaphore(),
	}
	if err := d.resolveTensorGeometry(); err != nil {
		interpreter.Delete()
		model.Delete()
		return nil, errors.New(err).
			Category(errors.CategoryModelInit).
			ModelContext(modelPath, settings.Detector.InputSize).
			Build()
	}

	if settings.Detector.Threads == 0 {
		spec := cpuspec.GetCPUSpec()
		if spec.PerformanceCores > 0 {
			log.Info("TFLite model initialized",
				slog.String("model", modelPath),
				slog.Int("input_size", d.inputSize),
				slog.Int("threads", threads),
				slog.Int("performance_cores", spec.PerformanceCores),
				slog.Int("total_cpus", runtime.NumCPU()))
		} else {
			log.Info("TFLite model initialized",
				slog.String("model", modelPath),
				slog.Int("input_size", d.inputSize),
				slog.Int("threads", threads),
				slog.Int("total_cpus", runtime.NumCPU()))
		}
	} else {
		log.Info("TFLite model initialized",
			slog.String("model", modelPath),
			slog.Int("input_size", d.inputSize),
			slog.Int("threads", threads),
			slog.Int("total_cpus", runtime.NumCPU()),
			slog.Bool("threads_configured", true))
	}

	return d, nil
}

// resolveTensorGeometry reads the input size, channel layout and output
// shape from the allocated tensors.
func (d *tfliteDetector) resolveTensorGeometry() error {
	in := d.interpreter.GetInputTensor(0)
	if in == nil {
		return fmt.Errorf("cannot get input tensor")
	}
	if in.NumDims() != 4 {
		return fmt.Errorf("expected 4 input dimensions, got %d", in.NumDims())
	}

	switch {
	case in.Dim(3) == 3:
		d.layout = layoutHWC
		if in.Dim(1) != in.Dim(2) {
			return fmt.Errorf("non-square input %dx%d not supported", in.Dim(1), in.Dim(2))
		}
		d.inputSize = in.Dim(1)
	case in.Dim(1) == 3:
		d.layout = layoutCHW
		if in.Dim(2) != in.Dim(3) {
			return fmt.Errorf("non-square input %dx%d not supported", in.Dim(2), in.Dim(3))
		}
		d.inputSize = in.Dim(2)
	default:
		return fmt.Errorf("cannot locate channel dimension in input tensor")
	}

	out := d.interpreter.GetOutputTensor(0)
	if out == nil {
		return fmt.Errorf("cannot get output tensor")
	}
	d.outputDims = make([]int, out.NumDims())
	size := 1
	for i := range d.outputDims {
		d.outputDims[i] = out.Dim(i)
		size *= out.Dim(i)
	}
	d.outputBuffer = make([]float32, size)

	return nil
}

func (d *tfliteDetector) Detect(ctx context.Context, img image.Image, confThreshold, iouThreshold float64) ([]taxonomy.RawDetection, error) {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryCancellation).
			Context("operation", "detect").
			Build()
	}
	defer d.sem.Release(1)

	in := d.interpreter.GetInputTensor(0)
	if in == nil {
		return nil, errors.Newf("cannot get input tensor").
			Category(errors.CategoryDetection).
			ModelContext(d.modelPath, d.inputSize).
			Build()
	}

	lb := fillInput(in.Float32s(), img, d.inputSize, d.layout)

	if status := d.interpreter.Invoke(); status != tflite.OK {
		return nil, errors.Newf("tensor invoke failed").
			Category(errors.CategoryDetection).
			ModelContext(d.modelPath, d.inputSize).
			Context("status", int(status)).
			Build()
	}

	out := d.interpreter.GetOutputTensor(0)
	if out == nil {
		return nil, errors.Newf("cannot get output tensor").
			Category(errors.CategoryDetection).
			ModelContext(d.modelPath, d.inputSize).
			Build()
	}
	copy(d.outputBuffer, out.Float32s())

	candidates, err := decodeOutput(d.outputBuffer, d.outputDims, confThreshold, taxonomy.NumClasses)
	if err != nil {
		return nil, err
	}

	return scaleToImage(nonMaxSuppression(candidates, iouThreshold), lb), nil
}

func (d *tfliteDetector) Close() error {
	if d.interpreter != nil {
		d.interpreter.Delete()
		d.interpreter = nil
	}
	if d.model != nil {
		d.model.Delete()
		d.model = nil
	}
	return nil
}
