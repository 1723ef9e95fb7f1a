package workers

import (
	"os"
	"runtime"
	"strconv"
)

// EnvOverride names the environment variable that pins the worker count for
// every pool in the process.
const EnvOverride = "INGEST_WORKERS"

// Workload multipliers applied to GOMAXPROCS.
const (
	CPUBound   = 1.0
	IOBound    = 2.0
	MixedBound = 1.5
)

// Count returns the number of workers for a workload with the given
// multiplier, based on GOMAXPROCS so container CPU limits are respected.
// limit caps the result; 0 means no cap. EnvOverride takes precedence over
// the computed value but is still capped by limit.
func Count(multiplier float64, limit int) int {
	if n, ok := override(); ok {
		return capAt(n, limit)
	}

	n := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if n < 1 {
		n = 1
	}
	return capAt(n, limit)
}

func override() (int, bool) {
	v := os.Getenv(EnvOverride)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func capAt(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}

// ForCPU sizes pools doing pure computation, one worker per CPU.
func ForCPU(limit int) int {
	return Count(CPUBound, limit)
}

// ForIO sizes pools that mostly wait on the filesystem or the catalog.
func ForIO(limit int) int {
	return Count(IOBound, limit)
}

// ForMixed sizes pools that read, decode and write, such as the initial
// scan where each file may need a thumbnail.
func ForMixed(limit int) int {
	return Count(MixedBound, limit)
}
