package assets

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"time"

	"github.com/ritzau/assetd/pkg/contenttype"
	"github.com/ritzau/assetd/pkg/logging"
)

type manifestEntry struct {
	size    int64
	modTime time.Time
}

// EmbeddedSource serves assets from a read-only filesystem, typically an
// embed.FS. The manifest is built once at construction and never changes.
type EmbeddedSource struct {
	name     string
	fsys     fs.FS
	manifest map[string]manifestEntry
}

// NewEmbeddedSource walks fsys and records every regular file in the manifest.
// Returns ErrConfiguration if fsys is nil or cannot be walked.
func NewEmbeddedSource(name string, fsys fs.FS) (*EmbeddedSource, error) {
	if fsys == nil {
		return nil, fmt.Errorf("%w: embedded source %q has no filesystem", ErrConfiguration, name)
	}
	if name == "" {
		name = "embedded"
	}

	manifest := make(map[string]manifestEntry)
	untyped := 0
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		manifest[p] = manifestEntry{size: info.Size(), modTime: info.ModTime()}
		if !contenttype.Known(path.Ext(p)) {
			untyped++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: building manifest for %q: %v", ErrConfiguration, name, err)
	}

	logging.Debug("embedded manifest loaded", "source", name, "files", len(manifest), "untyped", untyped)

	return &EmbeddedSource{
		name:     name,
		fsys:     fsys,
		manifest: manifest,
	}, nil
}

// Name returns the source name.
func (s *EmbeddedSource) Name() string {
	return s.name
}

// Resolve looks up req by exact, case-sensitive path.
func (s *EmbeddedSource) Resolve(ctx context.Context, req Request) (*Descriptor, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	entry, ok := s.manifest[req.Path()]
	if !ok {
		return nil, false, nil
	}

	f, err := s.fsys.Open(req.Path())
	if err != nil {
		return nil, false, fmt.Errorf("%w: opening embedded %q: %v", ErrIO, req.Path(), err)
	}

	return newDescriptor(req, s.name, contenttype.ForPath(req.Path()), entry.size, entry.modTime, f), true, nil
}

// Paths returns the sorted manifest keys.
func (s *EmbeddedSource) Paths() []string {
	paths := make([]string, 0, len(s.manifest))
	for p := range s.manifest {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Compile-time interface check.
var _ Source = (*EmbeddedSource)(nil)
