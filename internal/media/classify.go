package media

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"asset-ingest/internal/filesystem"
	"asset-ingest/internal/mediatypes"
	"asset-ingest/internal/metrics"

	"github.com/gabriel-vasile/mimetype"
)

// SniffLength is the number of leading bytes inspected for content sniffing.
const SniffLength = 262

// Classification methods, also used as metric labels.
const (
	MethodSniff     = "sniff"
	MethodExtension = "extension"
	MethodDefault   = "default"
)

// MimeInfo is the result of classifying a file.
type MimeInfo struct {
	MimeType string
	// Method records how MimeType was decided: sniff, extension or default.
	Method string
}

// Classify determines the MIME type of the file at path. The first
// SniffLength bytes are sniffed; when sniffing finds nothing the extension
// table is consulted, and failing that DefaultMimeType is used. Only I/O
// errors are returned.
func Classify(path string, retry filesystem.RetryConfig) (MimeInfo, error) {
	f, err := filesystem.OpenWithRetry(path, retry)
	if err != nil {
		return MimeInfo{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := ClassifyReader(f, filepath.Base(path))
	if err != nil {
		return MimeInfo{}, fmt.Errorf("read %s: %w", path, err)
	}
	return info, nil
}

// ClassifyReader classifies content read from r, using name for the
// extension fallback.
func ClassifyReader(r io.Reader, name string) (MimeInfo, error) {
	header := make([]byte, SniffLength)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return MimeInfo{}, err
	}

	info := classifyHeader(header[:n], name)
	metrics.ClassifiedTotal.WithLabelValues(info.Method).Inc()
	return info, nil
}

func classifyHeader(header []byte, name string) MimeInfo {
	if len(header) > 0 {
		detected := stripParams(mimetype.Detect(header).String())
		if detected != mediatypes.DefaultMimeType {
			return MimeInfo{MimeType: detected, Method: MethodSniff}
		}
	}

	if mime, ok := mediatypes.MimeFromExtension(filepath.Ext(name)); ok {
		return MimeInfo{MimeType: mime, Method: MethodExtension}
	}

	return MimeInfo{MimeType: mediatypes.DefaultMimeType, Method: MethodDefault}
}

// stripParams drops MIME parameters such as "; charset=utf-8".
func stripParams(mime string) string {
	base, _, _ := strings.Cut(mime, ";")
	return strings.TrimSpace(base)
}
