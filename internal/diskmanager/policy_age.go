// policy_age.go - age window retention policy
package diskmanager

import (
	"time"
)

// FilterExpired returns the files whose modification time is strictly
// older than now minus window. Pure over its inputs; running it twice
// against the same snapshot yields the same selection, which makes the
// sweep idempotent.
func FilterExpired(files []FileInfo, now time.Time, window time.Duration) []FileInfo {
	cutoff := now.Add(-window)

	var expired []FileInfo
	for i := range files {
		if files[i].ModTime.Before(cutoff) {
			expired = append(expired, files[i])
		}
	}
	return expired
}

// AgeBasedCleanup removes artifacts older than the window from the
// given namespace directories. Files inside the window are never
// touched, referenced or not. Per-file removal failures are logged and
// skipped.
func AgeBasedCleanup(dirs []string, window time.Duration, clock Clock, debug bool) CleanupResult {
	start := time.Now()
	now := clock()

	files := CollectFiles(dirs, debug)
	expired := FilterExpired(files, now, window)

	if debug {
		log.Debug("age-based cleanup selection",
			"total_files", len(files),
			"expired", len(expired),
			"window", window,
			"cutoff", now.Add(-window))
	}

	result, freed := removeFiles(expired, "age")

	if result.Removed > 0 || result.Skipped > 0 {
		log.Info("age-based cleanup completed",
			"removed", result.Removed,
			"skipped", result.Skipped,
			"bytes_freed", freed)
	}
	if diskMetrics != nil {
		diskMetrics.RecordCleanup("age", result.Removed, freed, time.Since(start))
	}

	return result
}
