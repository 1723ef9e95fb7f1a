// Package media classifies uploaded files and derives thumbnails.
//
// Classify sniffs the leading bytes of a file with mimetype and falls back to
// the extension table in mediatypes. GetImageDimensions reads width and
// height from the image header. ThumbnailDeriver fits an image into a square
// box (150x150 by default), makes it opaque and writes it as PNG via a
// temporary file and rename. When libvips has been initialized with InitVips
// and the deriver is configured for it, decoding goes through libvips.
package media
