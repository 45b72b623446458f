// Package contenttype maps file extensions to MIME content types.
//
// The table is fixed at compile time so results do not depend on the host's
// mime.types files. Unknown extensions resolve to application/octet-stream.
package contenttype

import (
	"path"
	"strings"
)

// Fallback is returned for extensions missing from the table.
const Fallback = "application/octet-stream"

var table = map[string]string{
	".css":         "text/css",
	".htm":         "text/html",
	".html":        "text/html",
	".txt":         "text/plain",
	".xml":         "application/xml",
	".js":          "application/javascript",
	".mjs":         "application/javascript",
	".map":         "application/json",
	".json":        "application/json",
	".ts":          "application/typescript",
	".webmanifest": "application/manifest+json",
	".wasm":        "application/wasm",
	".png":         "image/png",
	".jpg":         "image/jpeg",
	".jpeg":        "image/jpeg",
	".gif":         "image/gif",
	".webp":        "image/webp",
	".ico":         "image/x-icon",
	".svg":         "image/svg+xml",
	".woff":        "font/woff",
	".woff2":       "font/woff2",
	".ttf":         "font/ttf",
	".otf":         "font/otf",
}

// normalize returns ext in lowercase, dot-prefixed form.
func normalize(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || ext == "." {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Resolve returns the content type for ext, which may omit the leading dot.
func Resolve(ext string) string {
	if ct, ok := table[normalize(ext)]; ok {
		return ct
	}
	return Fallback
}

// ForPath resolves the content type from the extension of p.
func ForPath(p string) string {
	return Resolve(path.Ext(p))
}

// Known reports whether ext has an explicit table entry.
func Known(ext string) bool {
	_, ok := table[normalize(ext)]
	return ok
}
