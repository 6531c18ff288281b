package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pcbvision/aoi-go/cmd/batch"
	"github.com/pcbvision/aoi-go/cmd/benchmark"
	"github.com/pcbvision/aoi-go/cmd/cleanup"
	"github.com/pcbvision/aoi-go/cmd/ensemble"
	"github.com/pcbvision/aoi-go/cmd/inspect"
	"github.com/pcbvision/aoi-go/cmd/result"
	"github.com/pcbvision/aoi-go/cmd/video"
	"github.com/pcbvision/aoi-go/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "aoi",
		Short:   "AOI-Go CLI",
		Long:    "Automated optical inspection for PCB defects: images, image batches and videos.",
		Version: fmt.Sprintf("%s (built %s)", settings.Version, settings.BuildDate),
	}

	// Set up the global flags for the root command.
	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		inspect.Command(settings),
		batch.Command(settings),
		video.Command(settings),
		ensemble.Command(settings),
		result.Command(settings),
		cleanup.Command(settings),
		benchmark.Command(settings),
	}

	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVarP(&settings.Detector.ModelPath, "model", "m", viper.GetString("detector.modelpath"), "Path to the defect detector model (.onnx or .tflite)")
	rootCmd.PersistentFlags().Float64VarP(&settings.Detector.Confidence, "confidence", "c", viper.GetFloat64("detector.confidence"), "Confidence threshold for reported detections")
	rootCmd.PersistentFlags().Float64Var(&settings.Detector.IoU, "iou", viper.GetFloat64("detector.iou"), "IoU threshold for non-maximum suppression")
	rootCmd.PersistentFlags().IntVar(&settings.Detector.Threads, "threads", viper.GetInt("detector.threads"), "Number of CPU threads for inference, 0 for automatic")
	rootCmd.PersistentFlags().StringVar(&settings.Inspection.Artifacts.Path, "artifacts", viper.GetString("inspection.artifacts.path"), "Path to the artifact root directory")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Printf("error binding flags: %v\n", err)
	}
}
