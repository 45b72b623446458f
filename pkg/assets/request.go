package assets

import (
	"fmt"
	"path"
	"strings"
)

// Request is a canonical asset path: relative, forward-slash separated and
// free of ".." segments. The zero Request names the root and matches no file.
type Request struct {
	path string
}

// NewRequest canonicalizes raw into a Request.
// Backslashes are treated as separators and leading slashes are dropped, since
// host paths are rooted at the asset root. Returns ErrPathEscape if the cleaned
// path climbs above the root, carries a drive prefix, or contains a NUL byte.
func NewRequest(raw string) (Request, error) {
	if strings.IndexByte(raw, 0) >= 0 {
		return Request{}, fmt.Errorf("%w: NUL byte in %q", ErrPathEscape, raw)
	}

	p := strings.ReplaceAll(raw, "\\", "/")
	if hasDrivePrefix(p) {
		return Request{}, fmt.Errorf("%w: drive prefix in %q", ErrPathEscape, raw)
	}

	p = path.Clean(strings.TrimLeft(p, "/"))
	if p == "." {
		return Request{}, nil
	}
	if p == ".." || strings.HasPrefix(p, "../") {
		return Request{}, fmt.Errorf("%w: %q", ErrPathEscape, raw)
	}

	return Request{path: p}, nil
}

// MustRequest is NewRequest for literals known to be valid. It panics otherwise.
func MustRequest(raw string) Request {
	req, err := NewRequest(raw)
	if err != nil {
		panic(err)
	}
	return req
}

// Path returns the canonical relative path.
func (r Request) Path() string {
	return r.path
}

// IsRoot reports whether the request names the root itself.
func (r Request) IsRoot() bool {
	return r.path == ""
}

func (r Request) String() string {
	return r.path
}

// hasDrivePrefix reports whether p starts with a Windows volume such as "C:".
func hasDrivePrefix(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
