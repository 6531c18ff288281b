// disk_usage.go - filesystem usage via gopsutil
package diskmanager

import (
	"github.com/shirou/gopsutil/v3/disk"
)

// DiskUsage describes the filesystem holding the artifact root.
type DiskUsage struct {
	Total       uint64
	Used        uint64
	UsedPercent float64
}

// GetDiskUsage reports usage of the filesystem containing path.
func GetDiskUsage(path string) (DiskUsage, error) {
	stat, err := disk.Usage(path)
	if err != nil {
		return DiskUsage{}, err
	}

	usage := DiskUsage{
		Total:       stat.Total,
		Used:        stat.Used,
		UsedPercent: stat.UsedPercent,
	}

	if diskMetrics != nil {
		diskMetrics.RecordDiskUsage(usage.Used, usage.Total, usage.UsedPercent)
	}
	return usage, nil
}
