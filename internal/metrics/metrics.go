package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// File processor metrics
var (
	FilesProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_ingest_files_processed_total",
			Help: "Files run through the file processor, by source and outcome",
		},
		[]string{"source", "outcome"}, // source: scan|watch, outcome: image|binary|skipped|error
	)

	FileProcessDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "asset_ingest_file_process_duration_seconds",
			Help:    "Time spent processing a single file",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"category"},
	)

	ClassifiedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_ingest_classified_total",
			Help: "Classification results by detection method",
		},
		[]string{"method"}, // sniff|extension|default
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_ingest_thumbnail_generations_total",
			Help: "Thumbnail derivations by status",
		},
		[]string{"status"}, // success|error
	)

	ThumbnailGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "asset_ingest_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail derivation duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	ThumbnailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "asset_ingest_thumbnail_cache_hits_total",
			Help: "Images whose thumbnail already existed in the cache",
		},
	)

	ThumbnailCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "asset_ingest_thumbnail_cache_misses_total",
			Help: "Images whose thumbnail had to be derived",
		},
	)

	ThumbnailOrphansReclaimed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "asset_ingest_thumbnail_orphans_reclaimed_total",
			Help: "Thumbnails removed because no catalog record references them",
		},
	)
)

// Scanner metrics
var (
	ScanRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_ingest_scan_runs_total",
			Help: "Initial scan runs by result",
		},
		[]string{"result"}, // complete|partial|failed
	)

	ScanLastDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "asset_ingest_scan_last_duration_seconds",
			Help: "Duration of the last initial scan in seconds",
		},
	)

	ScanLastTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "asset_ingest_scan_last_timestamp",
			Help: "Unix timestamp of the last completed initial scan",
		},
	)

	ScanFolderErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "asset_ingest_scan_folder_errors_total",
			Help: "Folders whose listing failed during a scan",
		},
	)

	ScanWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "asset_ingest_scan_workers",
			Help: "Number of file processor workers used by the scanner",
		},
	)

	ScanIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "asset_ingest_scan_running",
			Help: "Whether the initial scan is currently running (1 = running, 0 = idle)",
		},
	)
)

// Watcher metrics
var (
	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_ingest_watcher_events_total",
			Help: "Filesystem events handled by the live watcher",
		},
		[]string{"event"}, // add|unlink|ignored
	)

	WatcherErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "asset_ingest_watcher_errors_total",
			Help: "Errors reported by the filesystem watcher",
		},
	)

	WatchedDirectories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "asset_ingest_watched_directories",
			Help: "Number of directories registered with the filesystem watcher",
		},
	)

	WatcherPendingSettles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "asset_ingest_watcher_pending_settles",
			Help: "Paths waiting for writes to settle before an add event",
		},
	)
)

// Catalog metrics
var (
	CatalogWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_ingest_catalog_writes_total",
			Help: "Catalog write operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	CatalogWriteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "asset_ingest_catalog_write_duration_seconds",
			Help:    "Catalog write duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	CatalogFilesTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "asset_ingest_catalog_files",
			Help: "File records in the catalog by category",
		},
		[]string{"category"},
	)

	CatalogFoldersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "asset_ingest_catalog_folders",
			Help: "Folder records in the catalog",
		},
	)
)

// History metrics
var (
	HistoryEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_ingest_history_events_total",
			Help: "History events by kind and status",
		},
		[]string{"kind", "status"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "asset_ingest_memory_usage_ratio",
			Help: "Heap allocation as a ratio of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "asset_ingest_memory_paused",
			Help: "Whether image decoding is paused for memory (1 = paused)",
		},
	)

	MemoryBackpressureWaits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "asset_ingest_memory_backpressure_waits_total",
			Help: "Image decodes that waited for memory to recover",
		},
	)
)

// Ops server metrics
var (
	OpsRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_ingest_ops_requests_total",
			Help: "Requests served by the ops endpoint",
		},
		[]string{"method", "route", "status"},
	)

	OpsRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "asset_ingest_ops_request_duration_seconds",
			Help:    "Ops endpoint request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "asset_ingest_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration by volume and operation",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_ingest_filesystem_retry_attempts_total",
			Help: "Retries after a stale file handle error",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_ingest_filesystem_retry_success_total",
			Help: "Operations that succeeded after at least one retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_ingest_filesystem_retry_failures_total",
			Help: "Operations that still failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asset_ingest_filesystem_stale_errors_total",
			Help: "ESTALE errors observed",
		},
		[]string{"operation", "volume"},
	)
)
