// Package ensemble implements the multi-pass quality assessment command.
package ensemble

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pcbvision/aoi-go/internal/conf"
	"github.com/pcbvision/aoi-go/internal/inspection"
)

// pcbID holds the --id flag value
var pcbID string

// Command creates the ensemble command for scoring a board photo at
// three confidence thresholds.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ensemble [image]",
		Short: "Score a board photo with the multi-pass ensemble",
		Long:  "Run the detector at high, medium and low confidence thresholds and fold the pass statistics into a weighted severity score.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			inspector, teardown, err := inspection.Build(settings)
			if err != nil {
				return err
			}
			defer teardown()

			assessment, err := inspector.Assess(cmd.Context(), payload, pcbID)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(assessment, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&pcbID, "id", "", "PCB identifier, generated when omitted")

	return cmd
}
