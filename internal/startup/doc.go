// Package startup loads configuration and writes the startup and shutdown
// log banners.
//
// # Configuration
//
// [LoadConfig] layers, from lowest to highest precedence: built-in
// defaults, an optional yaml/toml/json file, and INGEST_* environment
// variables. Nested keys use an underscore in the environment:
//
//	upload_dir                  INGEST_UPLOAD_DIR               (./uploads)
//	thumbnail_dir               INGEST_THUMBNAIL_DIR            (./thumbnails)
//	database_path               INGEST_DATABASE_PATH            (./data/ingest.db)
//	ops.enabled                 INGEST_OPS_ENABLED              (true)
//	ops.addr                    INGEST_OPS_ADDR                 (:9090)
//	log.level                   INGEST_LOG_LEVEL                (info)
//	log.file                    INGEST_LOG_FILE                 (stderr only)
//	scan.max_workers            INGEST_SCAN_MAX_WORKERS         (8)
//	watch.stability_threshold   INGEST_WATCH_STABILITY_THRESHOLD (2s)
//	watch.poll_interval         INGEST_WATCH_POLL_INTERVAL      (100ms)
//	watch.max_concurrent        INGEST_WATCH_MAX_CONCURRENT     (16)
//	thumbnails.size             INGEST_THUMBNAILS_SIZE          (150)
//	thumbnails.use_vips         INGEST_THUMBNAILS_USE_VIPS      (false)
//	thumbnails.reclaim_orphans  INGEST_THUMBNAILS_RECLAIM_ORPHANS (false)
//	thumbnails.reclaim_interval INGEST_THUMBNAILS_RECLAIM_INTERVAL (1h)
//
// Paths are made absolute. [PrepareDirectories] creates missing directories
// and verifies the thumbnail and database directories are writable.
//
// # Build Information
//
// Version, Commit and BuildTime are set at build time:
//
//	go build -ldflags "-X asset-ingest/internal/startup.Version=1.0.0"
package startup
