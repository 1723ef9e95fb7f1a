package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"asset-ingest/internal/identity"
	"asset-ingest/internal/mediatypes"
)

// Folder is one cataloged directory level. The upload root has an empty Name.
type Folder struct {
	ID   string
	Name string
}

// NewFolder builds the Folder record for a path relative to the upload root.
func NewFolder(name string) Folder {
	return Folder{ID: identity.FolderID(name), Name: name}
}

// ImageExtra carries the metadata only images have.
type ImageExtra struct {
	Width  int
	Height int
}

// FileRecord is the catalog entry for one ingested file.
type FileRecord struct {
	ID       string
	Category mediatypes.Category
	MimeType string
	FolderID string
	Filename string
	BaseName string
	Size     int64
	Extra    *ImageExtra
}

// EventKind is the kind of a history event.
type EventKind string

const (
	EventUploaded EventKind = "uploaded"
	EventDeleted  EventKind = "deleted"
)

// Catalog persists folders and file records.
type Catalog interface {
	// ReplaceFolders deletes every folder record and inserts folders.
	ReplaceFolders(ctx context.Context, folders []Folder) error
	// ReplaceFiles deletes every file record and inserts files.
	ReplaceFiles(ctx context.Context, files []FileRecord) error
	// UpsertFile inserts file or overwrites the record with the same ID.
	UpsertFile(ctx context.Context, file FileRecord) error
}

// History records file lifecycle events.
type History interface {
	RecordEvent(ctx context.Context, kind EventKind, path string) error
}

var (
	// ErrDimensions wraps failures reading the pixel size of an image.
	ErrDimensions = errors.New("image dimensions unavailable")
	// ErrThumbnail wraps failures deriving a thumbnail.
	ErrThumbnail = errors.New("thumbnail derivation failed")
	// ErrRootUnreadable is returned by Scan when the upload root cannot be listed.
	ErrRootUnreadable = errors.New("upload root unreadable")
	// ErrCatalogWrite wraps catalog failures that end a scan.
	ErrCatalogWrite = errors.New("catalog write failed")
	// ErrWatcherStarted is returned when Run is called on a running watcher.
	ErrWatcherStarted = errors.New("watcher already started")
)

// baseName strips the final extension from filename.
func baseName(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

