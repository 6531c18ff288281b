// file_utils.go - artifact file snapshot collection
package diskmanager

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FileInfo is a point-in-time snapshot of one artifact file. Policies
// operate on snapshots so they stay pure with respect to the clock.
type FileInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// CollectFiles walks the given directories recursively and snapshots
// every regular file. Unreadable entries are logged and skipped, they
// never abort the walk. Missing directories yield no files.
func CollectFiles(dirs []string, debug bool) []FileInfo {
	var files []FileInfo

	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return filepath.SkipDir
				}
				log.Warn("skipping unreadable entry during retention walk",
					"path", path, "error", err)
				return nil
			}
			if d.IsDir() {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				log.Warn("failed to stat file during retention walk",
					"path", path, "error", err)
				return nil
			}

			files = append(files, FileInfo{
				Path:    path,
				Size:    info.Size(),
				ModTime: info.ModTime(),
			})
			return nil
		})
		if err != nil {
			log.Warn("retention walk failed", "dir", dir, "error", err)
		}
	}

	if debug {
		log.Debug("collected artifact files", "count", len(files), "dirs", dirs)
	}
	return files
}

// removeFiles deletes the given files, logging and skipping any
// per-file failure. It returns the sweep outcome and the bytes freed.
func removeFiles(files []FileInfo, policy string) (result CleanupResult, freed int64) {
	for i := range files {
		if err := os.Remove(files[i].Path); err != nil {
			result.Skipped++
			log.Warn("failed to remove aged artifact",
				"path", files[i].Path, "error", err)
			if diskMetrics != nil {
				diskMetrics.RecordFileAction(policy, "error")
			}
			continue
		}

		result.Removed++
		freed += files[i].Size
		if diskMetrics != nil {
			diskMetrics.RecordFileAction(policy, "deleted")
		}
	}
	return result, freed
}
