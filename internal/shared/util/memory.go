package util

import "runtime"

// GetHeapAllocMB reports the live heap in whole megabytes.
func GetHeapAllocMB() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.Alloc >> 20
}
