package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ritzau/assetd/pkg/logging"
)

// Root is a directory to watch, named after the asset source that serves it.
type Root struct {
	Name string
	Path string
}

// ChangeEvent represents a batch of changes below one root
type ChangeEvent struct {
	Source    string
	Paths     []string // slash-separated, relative to the root
	Timestamp time.Time
}

// FileWatcher watches asset directories recursively
type FileWatcher struct {
	watcher *fsnotify.Watcher
	roots   []Root
	events  chan ChangeEvent
	stop    sync.Once
}

// NewFileWatcher creates a watcher for roots. Roots are made absolute so
// event paths can be mapped back to them.
func NewFileWatcher(roots []Root) (*FileWatcher, error) {
	if len(roots) == 0 {
		return nil, errors.New("no directories to watch")
	}

	abs := make([]Root, 0, len(roots))
	for _, r := range roots {
		p, err := filepath.Abs(r.Path)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", r.Path, err)
		}
		// fsnotify reports paths below the resolved directory.
		if resolved, err := filepath.EvalSymlinks(p); err == nil {
			p = resolved
		}
		abs = append(abs, Root{Name: r.Name, Path: p})
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher: w,
		roots:   abs,
		events:  make(chan ChangeEvent, 100),
	}, nil
}

// Start registers every directory below the roots and processes events until
// ctx is cancelled. Roots that do not exist are skipped with a warning.
func (fw *FileWatcher) Start(ctx context.Context) error {
	watched := 0
	for _, r := range fw.roots {
		n, err := fw.addTree(r.Path)
		if err != nil {
			logging.Warn("failed to watch asset root", "root", r.Path, "error", err)
			continue
		}
		watched += n
	}
	if watched == 0 {
		fw.watcher.Close()
		return errors.New("no watchable directories")
	}

	logging.Info("watching asset directories", "roots", len(fw.roots), "dirs", watched)

	go fw.processEvents(ctx)
	return nil
}

// addTree watches dir and all directories below it.
func (fw *FileWatcher) addTree(dir string) (int, error) {
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil // Skip entries we can't access
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isIgnored(d.Name()) {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			logging.Warn("failed to watch directory", "path", path, "error", err)
			return nil
		}
		count++
		return nil
	})
	return count, err
}

func (fw *FileWatcher) processEvents(ctx context.Context) {
	defer close(fw.events)
	defer fw.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if isIgnored(filepath.Base(event.Name)) {
				continue
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if _, err := fw.addTree(event.Name); err != nil {
						logging.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
				}
			}

			root, rel, ok := fw.locate(event.Name)
			if !ok {
				continue
			}
			logging.Trace("asset change", "source", root.Name, "path", rel, "op", event.Op.String())

			select {
			case fw.events <- ChangeEvent{Source: root.Name, Paths: []string{rel}, Timestamp: time.Now()}:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// locate maps an absolute event path to its root and slash-relative path.
// The longest matching root wins when roots are nested.
func (fw *FileWatcher) locate(name string) (Root, string, bool) {
	var (
		best    Root
		bestRel string
		found   bool
	)
	for _, r := range fw.roots {
		rel, err := filepath.Rel(r.Path, name)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if !found || len(r.Path) > len(best.Path) {
			best, bestRel, found = r, filepath.ToSlash(rel), true
		}
	}
	return best, bestRel, found
}

// Events returns the channel of raw change events. It is closed once the
// watcher stops.
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

// Stop closes the underlying watcher without waiting for ctx.
func (fw *FileWatcher) Stop() error {
	var err error
	fw.stop.Do(func() {
		err = fw.watcher.Close()
	})
	return err
}

// isIgnored filters editor swap files and hidden entries.
func isIgnored(name string) bool {
	return strings.HasPrefix(name, ".") ||
		strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") ||
		strings.HasSuffix(name, ".tmp")
}
