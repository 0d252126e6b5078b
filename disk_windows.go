//go:build windows

package goartifactcleaner

import (
	"errors"
	"path/filepath"
	"syscall"
	"unsafe"
)

var (
	kernel32               = syscall.NewLazyDLL("kernel32.dll")
	procGetDiskFreeSpaceEx = kernel32.NewProc("GetDiskFreeSpaceExW")
)

// GetDiskUsage returns disk usage information for the given path
func (d *DefaultDiskInfoProvider) GetDiskUsage(path string) (*DiskUsage, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	var freeBytesAvailable, totalBytes, totalFreeBytes uint64

	pathPtr, err := syscall.UTF16PtrFromString(absPath)
	if err != nil {
		return nil, err
	}

	ret, _, err := procGetDiskFreeSpaceEx.Call(
		uintptr(unsafe.Pointer(pathPtr)),
		uintptr(unsafe.Pointer(&freeBytesAvailable)),
		uintptr(unsafe.Pointer(&totalBytes)),
		uintptr(unsafe.Pointer(&totalFreeBytes)),
	)
	if ret == 0 {
		// Fails for paths that do not exist
		return nil, err
	}

	if totalBytes == 0 {
		return nil, errors.New("total disk size is 0")
	}

	used := totalBytes - totalFreeBytes
	usedPercent := float64(used) / float64(totalBytes) * 100

	return &DiskUsage{
		Total:       totalBytes,
		Free:        freeBytesAvailable,
		Used:        used,
		UsedPercent: usedPercent,
	}, nil
}
