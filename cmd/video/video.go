// Package video implements the video inspection command.
package video

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pcbvision/aoi-go/internal/conf"
	"github.com/pcbvision/aoi-go/internal/inspection"
)

// pcbID holds the --id flag value
var pcbID string

// Command creates the video command for inspecting a recorded board
// video.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "video [input]",
		Short: "Inspect a recorded board video",
		Long:  "Sample frames from a video, detect defects, write an annotated copy and grade the board by defect frame density.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := conf.ResolveVideoTools(settings); err != nil {
				return err
			}

			inspector, teardown, err := inspection.Build(settings)
			if err != nil {
				return err
			}
			defer teardown()

			rec, err := inspector.InspectVideo(cmd.Context(), args[0], pcbID)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	setupFlags(cmd, settings)

	return cmd
}

// setupFlags configures flags specific to the video command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.Flags().StringVar(&pcbID, "id", "", "PCB identifier, generated when omitted")
	cmd.Flags().Float64Var(&settings.Inspection.Video.SampleCoefficient, "samplecoeff", viper.GetFloat64("inspection.video.samplecoefficient"), "FPS multiplier deciding the frame sampling stride")
	cmd.Flags().IntVar(&settings.Inspection.Video.MaxDefectFrames, "maxdefectframes", viper.GetInt("inspection.video.maxdefectframes"), "Maximum annotated defect frames retained")
	cmd.Flags().BoolVar(&settings.Inspection.Video.Encoder.WebOptimize, "weboptimize", viper.GetBool("inspection.video.encoder.weboptimize"), "Transcode the annotated video for web playback")
	cmd.Flags().BoolVar(&settings.Inspection.Video.GradedFrameVerdicts, "gradedframeverdicts", viper.GetBool("inspection.video.gradedframeverdicts"), "Grade frame verdicts by detection count instead of failing on any detection")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		fmt.Printf("error binding flags: %v\n", err)
	}
}
