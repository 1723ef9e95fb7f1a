// Command asset-ingest catalogs an upload tree and keeps the catalog current.
//
// # Lifecycle
//
//  1. Configuration: defaults, an optional --config file and INGEST_*
//     environment variables.
//  2. Memory: GOMEMLIMIT from the container limit.
//  3. Database: SQLite catalog, migrated to the latest schema.
//  4. History: in-process event bus with a recorder appending to the
//     database.
//  5. Pipeline: the initial scan replaces the catalog, then the watcher
//     keeps it current until SIGINT or SIGTERM.
//  6. Optional: ops endpoint (/metrics, /healthz, /readyz) and the thumbnail
//     janitor.
//
// Shutdown runs in reverse dependency order with a 30 second budget.
//
// # Usage
//
//	asset-ingest --config /etc/asset-ingest.yaml
//	asset-ingest --scan-only
//	asset-ingest version
package main
