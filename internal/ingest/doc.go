/*
Package ingest keeps a catalog of the upload tree in step with the
filesystem.

A Processor turns one file into a FileRecord: it stats the path, classifies
the content, and for images reads the dimensions and derives a thumbnail
named after the record ID. Non-regular entries are skipped.

The Scanner runs once at startup. It replaces the folder collection with the
root plus every first-level directory, processes all of their entries on a
bounded worker pool and replaces the file collection with the records that
succeeded. Failures of single files or folders only shrink the result.

The Watcher takes over once the scan returns. It watches the root and its
first-level directories with fsnotify, waits for writes to settle, upserts
the record of each added file and records an "uploaded" history event.
Removals only record a "deleted" event; records and thumbnails stay.

Pipeline sequences the two and reports readiness. Storage is behind the
Catalog and History interfaces.
*/
package ingest
