// Package memory configures the Go memory limit from the container limit and
// provides backpressure for image decoding.
//
// # Configuration
//
// Call [ConfigureFromEnv] early in main, before significant allocations:
//
//   - GOMEMLIMIT: standard Go variable; if set it wins and nothing else is read.
//   - INGEST_MEMORY_LIMIT: container limit in bytes, typically from the
//     Kubernetes Downward API.
//   - INGEST_MEMORY_RATIO: share of INGEST_MEMORY_LIMIT given to the Go heap,
//     between 0 and 1 (default 0.85). The rest is left for libvips and
//     goroutine stacks.
//
// Example Downward API wiring:
//
//	env:
//	  - name: INGEST_MEMORY_LIMIT
//	    valueFrom:
//	      resourceFieldRef:
//	        resource: limits.memory
//
// # Backpressure
//
// A [Monitor] samples heap allocation against the limit. Above the critical
// mark it pauses; [Monitor.Wait] then blocks callers until usage drops back
// below the high-water mark. The file processor waits before decoding each
// image, so a burst of large uploads degrades to sequential decoding rather
// than exhausting memory.
package memory
