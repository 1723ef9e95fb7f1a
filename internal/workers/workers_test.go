package workers

import (
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	t.Setenv(EnvOverride, "")
	procs := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		want       int
	}{
		{name: "cpu no limit", multiplier: CPUBound, limit: 0, want: procs},
		{name: "io no limit", multiplier: IOBound, limit: 0, want: procs * 2},
		{name: "limit caps", multiplier: IOBound, limit: 1, want: 1},
		{name: "tiny multiplier floors at one", multiplier: 0.0001, limit: 0, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Count(tt.multiplier, tt.limit); got != tt.want {
				t.Errorf("Count(%v, %d) = %d, want %d", tt.multiplier, tt.limit, got, tt.want)
			}
		})
	}
}

func TestCountOverride(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		limit    int
		want     int
	}{
		{name: "override used", envValue: "7", limit: 0, want: 7},
		{name: "override capped by limit", envValue: "7", limit: 3, want: 3},
		{name: "zero ignored", envValue: "0", limit: 0, want: runtime.GOMAXPROCS(0)},
		{name: "negative ignored", envValue: "-2", limit: 0, want: runtime.GOMAXPROCS(0)},
		{name: "garbage ignored", envValue: "lots", limit: 0, want: runtime.GOMAXPROCS(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvOverride, tt.envValue)
			if got := Count(CPUBound, tt.limit); got != tt.want {
				t.Errorf("Count with %s=%s = %d, want %d", EnvOverride, tt.envValue, got, tt.want)
			}
		})
	}
}

func TestHelpersOrdering(t *testing.T) {
	t.Setenv(EnvOverride, "")

	cpu, mixed, io := ForCPU(0), ForMixed(0), ForIO(0)
	if cpu > mixed || mixed > io {
		t.Errorf("expected ForCPU <= ForMixed <= ForIO, got %d, %d, %d", cpu, mixed, io)
	}
	if ForMixed(2) > 2 {
		t.Errorf("ForMixed(2) = %d, exceeds limit", ForMixed(2))
	}
}
