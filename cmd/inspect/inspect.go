// Package inspect implements the single image inspection command.
package inspect

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

// Command creates the inspect command for a single board photo.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [image]",
		Short: "Inspect a single board photo",
		Long:  "Run the defect detector over one PCB image and print the verdict. Any detection fails the board.",
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

			rec, err := inspector.InspectImage(cmd.Context(), payload, pcbID)
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

	cmd.Flags().StringVar(&pcbID, "id", "", "PCB identifier, generated when omitted")

	return cmd
}
