//go:build !windows

package goartifactcleaner

import (
	"errors"
	"syscall"
)

// GetDiskUsage returns disk usage information for the given path
func (d *DefaultDiskInfoProvider) GetDiskUsage(path string) (*DiskUsage, error) {
	var stat syscall.Statfs_t
	err := syscall.Statfs(path, &stat)
	if err != nil {
		return nil, err
	}

	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	used := total - free

	if total == 0 {
		return nil, errors.New("total disk size is 0")
	}

	usedPercent := float64(used) / float64(total) * 100

	return &DiskUsage{
		Total:       total,
		Free:        free,
		Used:        used,
		UsedPercent: usedPercent,
	}, nil
}
