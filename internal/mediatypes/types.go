package mediatypes

import "strings"

// Category is the catalog classification of an ingested file.
type Category string

const (
	// CategoryImage is a supported raster image small enough to thumbnail.
	CategoryImage Category = "image"
	// CategoryBinary is every other file, including oversized images.
	CategoryBinary Category = "binary"
)

// MaxImageSize is the exclusive upper bound, in bytes, for a file to be
// treated as an image. Larger images are cataloged as binary.
const MaxImageSize int64 = 3 * 1024 * 1024

// DefaultMimeType is used when neither sniffing nor the extension table
// identifies a file.
const DefaultMimeType = "application/octet-stream"

// ImageMimeTypes lists the MIME types eligible for dimension extraction and
// thumbnailing.
var ImageMimeTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/bmp":  true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	// Images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".jpe":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".heic": "image/heic",
	".heif": "image/heif",
	".avif": "image/avif",

	// Video and audio
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",

	// Documents and text
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".js":   "text/javascript",
	".json": "application/json",
	".xml":  "application/xml",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",

	// Archives
	".zip": "application/zip",
	".gz":  "application/gzip",
	".tar": "application/x-tar",
	".7z":  "application/x-7z-compressed",
	".rar": "application/vnd.rar",
}

// MimeFromExtension returns the MIME type registered for ext. The lookup is
// case-insensitive and accepts the extension with or without its leading dot.
// The second return value is false when ext is unknown.
func MimeFromExtension(ext string) (string, bool) {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	mime, ok := MimeTypes[ext]
	return mime, ok
}

// GetMimeType returns the MIME type for a given file extension, or
// DefaultMimeType if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeFromExtension(ext); ok {
		return mime
	}
	return DefaultMimeType
}

// IsImageMime reports whether mime is one of the thumbnail-capable image types.
func IsImageMime(mime string) bool {
	return ImageMimeTypes[mime]
}

// CategoryFor decides the catalog category of a file from its MIME type and
// size. A file is an image only when its MIME type is supported and it is
// strictly smaller than MaxImageSize.
func CategoryFor(mime string, size int64) Category {
	if IsImageMime(mime) && size < MaxImageSize {
		return CategoryImage
	}
	return CategoryBinary
}
