package goartifactcleaner

// DiskUsage represents disk usage information
type DiskUsage struct {
	Total       uint64
	Free        uint64
	Used        uint64
	UsedPercent float64
}

// DiskInfoProvider is an interface for getting disk information
type DiskInfoProvider interface {
	GetDiskUsage(path string) (*DiskUsage, error)
}

// DefaultDiskInfoProvider is the default implementation of DiskInfoProvider
type DefaultDiskInfoProvider struct{}

// GetDiskFreeSpace returns the available disk space for the given directory path.
//
//	free, err := GetDiskFreeSpace("/work")
//	if err == nil && free < required {
//	    // refuse to run
//	}
func GetDiskFreeSpace(dirPath string) (int64, error) {
	provider := &DefaultDiskInfoProvider{}
	usage, err := provider.GetDiskUsage(dirPath)
	if err != nil {
		return 0, err
	}
	return int64(usage.Free), nil
}
