// Package cleanup implements the artifact retention command.
package cleanup

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pcbvision/aoi-go/internal/conf"
	"github.com/pcbvision/aoi-go/internal/diskmanager"
)

// windowMinutes holds the --window flag value
var windowMinutes int

// Command creates the cleanup command for running the retention policy
// once. The sweep only removes files strictly older than the window.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Run the artifact retention policy once",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := diskmanager.Cleanup(settings, windowMinutes, time.Now)
			if err != nil {
				return err
			}

			fmt.Printf("removed %d artifacts (%d skipped)\n", result.Removed, result.Skipped)
			return nil
		},
	}

	cmd.Flags().IntVarP(&windowMinutes, "window", "w", 0, "Age window in minutes, overrides the configured window when set")

	return cmd
}
