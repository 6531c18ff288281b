// policy_usage.go - disk usage retention policy
package diskmanager

import (
	"sort"
	"time"

	"github.com/pcbvision/aoi-go/internal/errors"
)

// SelectOldest orders files oldest first and returns the prefix whose
// combined size reaches at least targetBytes. The selection is pure so
// it can be tested without a real filesystem.
func SelectOldest(files []FileInfo, targetBytes int64) []FileInfo {
	sorted := make([]FileInfo, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ModTime.Before(sorted[j].ModTime)
	})

	var selected []FileInfo
	var accumulated int64
	for i := range sorted {
		if accumulated >= targetBytes {
			break
		}
		selected = append(selected, sorted[i])
		accumulated += sorted[i].Size
	}
	return selected
}

// UsageBasedCleanup removes oldest artifacts until the filesystem
// holding the artifact root drops below the usage threshold. Nothing is
// removed while usage is under the threshold.
func UsageBasedCleanup(rootPath string, dirs []string, thresholdPercent float64, debug bool) (CleanupResult, error) {
	start := time.Now()

	usage, err := GetDiskUsage(rootPath)
	if err != nil {
		return CleanupResult{}, errors.New(err).
			Component("diskmanager").
			Category(errors.CategoryDiskUsage).
			Context("path", rootPath).
			Build()
	}

	if usage.UsedPercent <= thresholdPercent {
		if debug {
			log.Debug("disk usage below threshold, no cleanup needed",
				"usage_percent", usage.UsedPercent,
				"threshold_percent", thresholdPercent)
		}
		return CleanupResult{}, nil
	}

	// Bytes to free to get back to the threshold.
	excessPercent := usage.UsedPercent - thresholdPercent
	targetBytes := int64(float64(usage.Total) * excessPercent / 100.0)

	files := CollectFiles(dirs, debug)
	selected := SelectOldest(files, targetBytes)

	if debug {
		log.Debug("usage-based cleanup selection",
			"usage_percent", usage.UsedPercent,
			"threshold_percent", thresholdPercent,
			"target_bytes", targetBytes,
			"selected", len(selected))
	}

	result, freed := removeFiles(selected, "usage")

	if result.Removed > 0 || result.Skipped > 0 {
		log.Info("usage-based cleanup completed",
			"removed", result.Removed,
			"skipped", result.Skipped,
			"bytes_freed", freed)
	}
	if diskMetrics != nil {
		diskMetrics.RecordCleanup("usage", result.Removed, freed, time.Since(start))
	}

	return result, nil
}
