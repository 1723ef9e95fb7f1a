package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"asset-ingest/internal/logging"
)

// Environment variables read by ConfigureFromEnv.
const (
	EnvMemoryLimit = "INGEST_MEMORY_LIMIT"
	EnvMemoryRatio = "INGEST_MEMORY_RATIO"
)

// DefaultMemoryRatio is the share of the container limit given to the Go heap.
const DefaultMemoryRatio = 0.85

// ConfigResult holds the result of memory configuration
type ConfigResult struct {
	Configured bool
	// Source is "GOMEMLIMIT", EnvMemoryLimit or "none".
	Source         string
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// ConfigureFromEnv sets the Go memory limit from the environment.
func ConfigureFromEnv(log logging.Logger) ConfigResult {
	result := ConfigResult{Source: "none"}

	if env := os.Getenv("GOMEMLIMIT"); env != "" {
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.Configured = true
			result.Source = "GOMEMLIMIT"
			result.GoMemLimit = limit
		}
		log.Info("GOMEMLIMIT set via environment: %s", env)
		return result
	}

	limitStr := os.Getenv(EnvMemoryLimit)
	if limitStr == "" {
		log.Debug("%s not set, GOMEMLIMIT will not be configured automatically", EnvMemoryLimit)
		return result
	}

	limit, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil || limit <= 0 {
		log.Warn("Ignoring invalid %s %q", EnvMemoryLimit, limitStr)
		return result
	}

	ratio := parseRatio(os.Getenv(EnvMemoryRatio), log)
	goMemLimit := int64(float64(limit) * ratio)
	debug.SetMemoryLimit(goMemLimit)

	result.Configured = true
	result.Source = EnvMemoryLimit
	result.ContainerLimit = limit
	result.GoMemLimit = goMemLimit
	result.Ratio = ratio

	log.Info("Configured GOMEMLIMIT: %s (%.1f%% of %s container limit)",
		formatBytes(goMemLimit), ratio*100, formatBytes(limit))

	return result
}

func parseRatio(s string, log logging.Logger) float64 {
	if s == "" {
		return DefaultMemoryRatio
	}
	r, err := strconv.ParseFloat(s, 64)
	if err != nil || r <= 0 || r > 1 {
		log.Warn("%s %q must be in (0, 1], using default %.2f", EnvMemoryRatio, s, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	return r
}

// formatBytes formats bytes into human-readable string
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
