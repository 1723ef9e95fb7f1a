package mediatypes

import (
	"testing"
)

func TestCategoryFor(t *testing.T) {
	tests := []struct {
		name string
		mime string
		size int64
		want Category
	}{
		{
			name: "Small PNG",
			mime: "image/png",
			size: 1024,
			want: CategoryImage,
		},
		{
			name: "PNG one byte under the limit",
			mime: "image/png",
			size: 3145727,
			want: CategoryImage,
		},
		{
			name: "PNG exactly at the limit",
			mime: "image/png",
			size: 3145728,
			want: CategoryBinary,
		},
		{
			name: "Large JPEG",
			mime: "image/jpeg",
			size: 10 * 1024 * 1024,
			want: CategoryBinary,
		},
		{
			name: "GIF",
			mime: "image/gif",
			size: 10,
			want: CategoryImage,
		},
		{
			name: "BMP",
			mime: "image/bmp",
			size: 10,
			want: CategoryImage,
		},
		{
			name: "WebP is not thumbnailed",
			mime: "image/webp",
			size: 10,
			want: CategoryBinary,
		},
		{
			name: "Plain text",
			mime: "text/plain",
			size: 10,
			want: CategoryBinary,
		},
		{
			name: "Empty image",
			mime: "image/png",
			size: 0,
			want: CategoryImage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CategoryFor(tt.mime, tt.size)
			if got != tt.want {
				t.Errorf("CategoryFor(%q, %d) = %v, want %v", tt.mime, tt.size, got, tt.want)
			}
		})
	}
}

func TestMaxImageSize(t *testing.T) {
	if MaxImageSize != 3145728 {
		t.Errorf("MaxImageSize = %d, want 3145728", MaxImageSize)
	}
}

func TestMimeFromExtension(t *testing.T) {
	tests := []struct {
		name   string
		ext    string
		want   string
		wantOK bool
	}{
		{name: "JPEG", ext: ".jpg", want: "image/jpeg", wantOK: true},
		{name: "Uppercase", ext: ".PNG", want: "image/png", wantOK: true},
		{name: "No leading dot", ext: "gif", want: "image/gif", wantOK: true},
		{name: "Text", ext: ".txt", want: "text/plain", wantOK: true},
		{name: "Unknown", ext: ".xyz", want: "", wantOK: false},
		{name: "Empty", ext: "", want: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MimeFromExtension(tt.ext)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("MimeFromExtension(%q) = (%q, %v), want (%q, %v)", tt.ext, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestGetMimeTypeDefault(t *testing.T) {
	if got := GetMimeType(".unknownext"); got != DefaultMimeType {
		t.Errorf("GetMimeType(unknown) = %q, want %q", got, DefaultMimeType)
	}
	if got := GetMimeType(".bmp"); got != "image/bmp" {
		t.Errorf("GetMimeType(.bmp) = %q, want image/bmp", got)
	}
}

func TestImageMimeTypesMatchExtensionTable(t *testing.T) {
	for mime := range ImageMimeTypes {
		found := false
		for _, m := range MimeTypes {
			if m == mime {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Image MIME %q has no extension in MimeTypes", mime)
		}
	}
}
