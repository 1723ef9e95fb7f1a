package metrics

import "asset-ingest/internal/mediatypes"

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, source := range []string{"scan", "watch"} {
		for _, outcome := range []string{"image", "binary", "skipped", "error"} {
			FilesProcessedTotal.WithLabelValues(source, outcome)
		}
	}

	for _, method := range []string{"sniff", "extension", "default"} {
		ClassifiedTotal.WithLabelValues(method)
	}

	for _, status := range []string{"success", "error"} {
		ThumbnailGenerationsTotal.WithLabelValues(status)
	}

	for _, result := range []string{"complete", "partial", "failed"} {
		ScanRunsTotal.WithLabelValues(result)
	}

	for _, event := range []string{"add", "unlink", "ignored"} {
		WatcherEventsTotal.WithLabelValues(event)
	}

	for _, op := range []string{"replace_folders", "replace_files", "upsert_file", "append_history"} {
		for _, status := range []string{"success", "error"} {
			CatalogWritesTotal.WithLabelValues(op, status)
		}
		CatalogWriteDuration.WithLabelValues(op)
	}

	for _, category := range []mediatypes.Category{mediatypes.CategoryImage, mediatypes.CategoryBinary} {
		CatalogFilesTotal.WithLabelValues(string(category))
	}

	for _, kind := range []string{"uploaded", "deleted"} {
		for _, status := range []string{"success", "error"} {
			HistoryEventsTotal.WithLabelValues(kind, status)
		}
	}

	volumes := []string{"uploads", "thumbnails", "database", "unknown"}
	for _, vol := range volumes {
		for _, op := range []string{"stat", "open", "readdir"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
		}
	}
}
