package media

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format names an image encoding that an item can be materialized into.
type Format string

const (
	// FormatCanonical is the single on-disk encoding of every stored item.
	FormatCanonical Format = "dpic"

	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatGIF  Format = "gif"
	FormatTIFF Format = "tiff"
	FormatBMP  Format = "bmp"
)

// ExportFormats lists every format Export accepts, canonical first.
var ExportFormats = []Format{FormatCanonical, FormatPNG, FormatJPEG, FormatGIF, FormatTIFF, FormatBMP}

var formatAliases = map[string]Format{
	"dpic": FormatCanonical,
	"png":  FormatPNG,
	"jpeg": FormatJPEG,
	"jpg":  FormatJPEG,
	"gif":  FormatGIF,
	"tiff": FormatTIFF,
	"tif":  FormatTIFF,
	"bmp":  FormatBMP,
}

// ParseFormat resolves a user-supplied format name ("PNG", ".jpg", "tif").
func ParseFormat(name string) (Format, error) {
	key := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "."))
	if f, ok := formatAliases[key]; ok {
		return f, nil
	}
	return "", fmt.Errorf("format %q: %w", name, ErrUnsupportedFormat)
}

// FormatFromPath infers the format from the extension of path.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("%s has no extension: %w", path, ErrUnsupportedFormat)
	}
	return ParseFormat(ext)
}

// Extension returns the file extension for f, including the leading dot.
func (f Format) Extension() string {
	if f == FormatJPEG {
		return ".jpg"
	}
	return "." + string(f)
}

// MIMEType returns the media type used when serving f over HTTP.
func (f Format) MIMEType() string {
	switch f {
	case FormatCanonical:
		return "application/x-dpic"
	case FormatPNG:
		return "image/png"
	case FormatJPEG:
		return "image/jpeg"
	case FormatGIF:
		return "image/gif"
	case FormatTIFF:
		return "image/tiff"
	case FormatBMP:
		return "image/bmp"
	default:
		return "application/octet-stream"
	}
}

func (f Format) String() string {
	return string(f)
}
