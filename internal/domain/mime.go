package domain

import (
	"fmt"
	"path"
	"strings"
)

// MimeCategory is the coarse media type derived from a file extension.
type MimeCategory string

const (
	MimeAudio    MimeCategory = "audio"
	MimeVideo    MimeCategory = "video"
	MimeImage    MimeCategory = "image"
	MimeDocument MimeCategory = "document"
)

var extensionCategories = map[string]MimeCategory{
	"mp3":  MimeAudio,
	"m4a":  MimeAudio,
	"wav":  MimeAudio,
	"flac": MimeAudio,
	"ogg":  MimeAudio,
	"opus": MimeAudio,
	"aac":  MimeAudio,
	"mp4":  MimeVideo,
	"webm": MimeVideo,
	"mkv":  MimeVideo,
	"mov":  MimeVideo,
	"avi":  MimeVideo,
	"jpg":  MimeImage,
	"jpeg": MimeImage,
	"png":  MimeImage,
	"gif":  MimeImage,
	"svg":  MimeImage,
	"webp": MimeImage,
	"tif":  MimeImage,
	"tiff": MimeImage,
	"pdf":  MimeDocument,
}

// CategoryForExtension looks up ext (case insensitive, leading dot
// optional).
func CategoryForExtension(ext string) (MimeCategory, error) {
	key := strings.ToLower(strings.TrimPrefix(ext, "."))
	if c, ok := extensionCategories[key]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownExtension, ext)
}

// ExtensionOf returns the lower case extension of a file path without dot.
func ExtensionOf(p string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
}

// IsPlayable reports whether assets of this category carry samples.
func (c MimeCategory) IsPlayable() bool {
	return c == MimeAudio || c == MimeVideo
}

// IsVisible reports whether assets of this category can be displayed.
func (c MimeCategory) IsVisible() bool {
	return c == MimeImage || c == MimeVideo
}
