// Package database is the SQLite store behind the ingest catalog and the
// history log.
//
// New opens the file with WAL journaling and applies the embedded
// migrations. Database implements ingest.Catalog: ReplaceFolders and
// ReplaceFiles delete and reinsert a whole collection inside one
// transaction, so readers see either the old or the new set. UpsertFile
// overwrites by record ID. AppendHistory and ListHistory back the history
// recorder; CatalogStats feeds the metrics collector.
package database
