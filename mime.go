package htmlpdf

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// extensionTypes maps lowercase file extensions to image MIME types. It is
// consulted when content sniffing gives no useful answer.
var extensionTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"svg":  "image/svg+xml",
}

const defaultMimeType = "application/octet-stream"

// detectMimeType sniffs data first and falls back to the extension of path.
// The result is a bare type/subtype without parameters.
func detectMimeType(path string, data []byte) string {
	m := mimetype.Detect(data)
	if !m.Is(defaultMimeType) && !m.Is("text/plain") {
		mt, _, _ := strings.Cut(m.String(), ";")
		return strings.TrimSpace(mt)
	}
	return mimeTypeByExtension(path)
}

func mimeTypeByExtension(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	return defaultMimeType
}
