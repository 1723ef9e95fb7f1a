// Package metrics provides Prometheus instrumentation for the asset ingestion
// pipeline.
//
// All metrics are registered with promauto at package init and prefixed with
// "asset_ingest_". They are grouped as:
//
//   - File processor: files processed by source and outcome, per-file
//     duration, classification method
//   - Thumbnails: derivations, cache hits and misses, orphans reclaimed
//   - Scanner: runs by result, last duration, folder listing errors, workers
//   - Watcher: events by kind, watched directories, pending write settles
//   - Catalog: write counts and durations, record gauges refreshed by Collector
//   - History: events by kind and status
//   - Filesystem: operation durations and ESTALE retry behaviour per volume
//
// Call InitializeMetrics once at startup so every label combination is
// exported from the first scrape.
package metrics
