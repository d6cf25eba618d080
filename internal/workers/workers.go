// Package workers sizes worker pools from the CPUs actually available to
// the process. runtime.NumCPU() reports host CPUs and ignores cgroup
// limits; GOMAXPROCS (Go 1.19+) respects them, so pool sizes derive from
// that instead.
package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Count returns a worker count scaled from available CPUs.
//
// The multiplier adjusts for workload shape: 1.0 for CPU-bound work,
// 2.0 for I/O-bound work. limit caps the result; 0 means no cap.
//
// The THUMBNAIL_WORKERS environment variable overrides the calculation,
// still subject to limit.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv("THUMBNAIL_WORKERS"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	available := runtime.GOMAXPROCS(0)
	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}
	return workers
}

// ForCPU returns a worker count for CPU-bound work (1 per CPU).
// Thumbnail rendering and hashing are the main users.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns a worker count for I/O-bound work (2 per CPU).
func ForIO(limit int) int {
	return Count(2.0, limit)
}
