// Package batch implements directory batch inspection.
package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pcbvision/aoi-go/internal/conf"
	"github.com/pcbvision/aoi-go/internal/inspection"
)

// imageExtensions are the file types picked up from a batch directory.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Command creates the batch command for inspecting a directory of
// board photos.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [directory]",
		Short: "Inspect a directory of board photos",
		Long:  "Inspect every image in a directory on a bounded worker pool. Items are independent, one failure never stops the rest.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.Input.Path = args[0]

			paths, err := collectImages(settings.Input.Path, settings.Input.Recursive)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no images found in %s", settings.Input.Path)
			}

			payloads := make([][]byte, 0, len(paths))
			for _, path := range paths {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				payloads = append(payloads, data)
			}

			inspector, teardown, err := inspection.Build(settings)
			if err != nil {
				return err
			}
			defer teardown()

			records, batchErr := inspector.InspectBatch(cmd.Context(), payloads, nil)

			fmt.Printf("%-10s %-14s %-14s %s\n", "ITEM", "STATUS", "DEFECT", "FILE")
			for idx, rec := range records {
				name := filepath.Base(paths[idx])
				if rec == nil {
					fmt.Printf("%-10s %-14s %-14s %s\n", fmt.Sprintf("PCB-%03d", idx+1), "REJECTED", "-", name)
					continue
				}
				fmt.Printf("%-10s %-14s %-14s %s\n", rec.PCBID, rec.Status, rec.DefectType, name)
			}

			return batchErr
		},
	}

	setupFlags(cmd, settings)

	return cmd
}

// setupFlags configures flags specific to the batch command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.Flags().BoolVarP(&settings.Input.Recursive, "recursive", "r", false, "Inspect directory recursively")
	cmd.Flags().IntVarP(&settings.Inspection.Batch.Workers, "workers", "w", viper.GetInt("inspection.batch.workers"), "Number of batch workers, 0 for automatic")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		fmt.Printf("error binding flags: %v\n", err)
	}
}

// collectImages lists the image files of a directory in sorted order so
// generated batch identifiers are stable across runs.
func collectImages(root string, recursive bool) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if imageExtensions[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}
