package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ritzau/assetd/pkg/contenttype"
	"github.com/ritzau/assetd/pkg/logging"
)

// DirectoryOptions configures a DirectorySource.
type DirectoryOptions struct {
	// Name identifies the source in logs. Defaults to "dir:" + the root.
	Name string

	// RootPath is the directory assets are served from.
	RootPath string

	// AllowMissingRoot accepts a root that does not exist yet. Lookups report
	// not found until it appears.
	AllowMissingRoot bool
}

// DirectorySource serves assets from a directory on disk. Nothing is cached:
// every Resolve stats and opens the file anew.
type DirectorySource struct {
	name string
	root string
}

// NewDirectorySource validates the root and returns a DirectorySource.
// Returns ErrConfiguration if the root is empty, is not a directory, or does
// not exist and AllowMissingRoot is false.
func NewDirectorySource(opts DirectoryOptions) (*DirectorySource, error) {
	if opts.RootPath == "" {
		return nil, fmt.Errorf("%w: empty root path", ErrConfiguration)
	}

	root, err := filepath.Abs(opts.RootPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	info, err := os.Stat(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if !opts.AllowMissingRoot {
			return nil, fmt.Errorf("%w: root does not exist: %s", ErrConfiguration, root)
		}
		logging.Warn("asset root does not exist yet", "root", root)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	case !info.IsDir():
		return nil, fmt.Errorf("%w: root is not a directory: %s", ErrConfiguration, root)
	}

	name := opts.Name
	if name == "" {
		name = "dir:" + root
	}

	return &DirectorySource{name: name, root: root}, nil
}

// Name returns the source name.
func (s *DirectorySource) Name() string {
	return s.name
}

// Root returns the absolute root directory.
func (s *DirectorySource) Root() string {
	return s.root
}

// Resolve opens req below the root. Symlinks are followed but the final target
// must stay inside the root, otherwise ErrPathEscape is returned.
func (s *DirectorySource) Resolve(ctx context.Context, req Request) (*Descriptor, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if req.IsRoot() {
		return nil, false, nil
	}

	// Resolved per call so a root created after startup, or swapped behind a
	// symlink, is honored.
	realRoot, err := filepath.EvalSymlinks(s.root)
	if err != nil {
		if isNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: resolving root: %v", ErrIO, err)
	}

	candidate := filepath.Join(realRoot, filepath.FromSlash(req.Path()))
	if !within(realRoot, candidate) {
		return nil, false, fmt.Errorf("%w: %q", ErrPathEscape, req.Path())
	}

	target, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		if isNotExist(err) {
			// A dangling link pointing out of the root is still an escape.
			if linksOutside(realRoot, req.Path()) {
				return nil, false, fmt.Errorf("%w: %q links outside root", ErrPathEscape, req.Path())
			}
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %v", ErrIO, err)
	}
	if !within(realRoot, target) {
		return nil, false, fmt.Errorf("%w: %q links outside root", ErrPathEscape, req.Path())
	}

	f, err := os.Open(target) // #nosec G304 -- containment checked above
	if err != nil {
		if isNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %v", ErrIO, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, false, fmt.Errorf("%w: %v", ErrIO, err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, false, nil
	}

	if err := ctx.Err(); err != nil {
		f.Close()
		return nil, false, err
	}

	logging.DebugContext(ctx, "asset opened", "source", s.name, "path", req.Path(), "size", info.Size())
	return newDescriptor(req, s.name, contenttype.ForPath(req.Path()), info.Size(), info.ModTime(), f), true, nil
}

// within reports whether p is root or lies below it.
func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// linksOutside walks rel below root and reports whether any existing symlink
// on the way points outside root. Walking stops at the first missing entry.
func linksOutside(root, rel string) bool {
	cur := root
	for _, part := range strings.Split(rel, "/") {
		next := filepath.Join(cur, part)
		info, err := os.Lstat(next)
		if err != nil {
			return false
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			dest, err := os.Readlink(next)
			if err != nil {
				return false
			}
			if !filepath.IsAbs(dest) {
				dest = filepath.Join(cur, dest)
			}
			if !within(root, filepath.Clean(dest)) {
				return true
			}
			// Links that stay inside are followed by EvalSymlinks on the
			// next lookup. Resolve through them here to keep walking.
			resolved, err := filepath.EvalSymlinks(next)
			if err != nil {
				return false
			}
			next = resolved
		}
		cur = next
	}
	return false
}

// isNotExist treats "a path component is a file" the same as a missing path.
func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

// Compile-time interface check.
var _ Source = (*DirectorySource)(nil)
