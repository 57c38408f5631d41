package constants

import "strings"

const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
)

// AllowedExtensions holds the file extensions picked up when a directory is expanded.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"tif":  {},
	"tiff": {},
	"bmp":  {},
	"webp": {},
	"gif":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat maps a normalized extension to PDF or IMAGE ("" when unknown).
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "jpg", "jpeg", "png", "tif", "tiff", "bmp", "webp", "gif":
		return IMAGE
	}
	return ""
}
