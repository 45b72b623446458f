// Package assets resolves relative asset paths to readable content streams.
//
// # Source Architecture
//
//	Source (interface)
//	    │
//	    ├── EmbeddedSource   - immutable manifest over an fs.FS (usually go:embed)
//	    ├── DirectorySource  - a directory on disk, re-checked on every request
//	    └── Provider         - ordered list of sources, first match wins
//
// A lookup that no source can satisfy is not an error: Resolve reports it
// through its boolean result, the same way a map lookup does. Errors are
// reserved for ErrPathEscape, ErrIO and context cancellation, and a Provider
// stops at the first source that fails instead of falling through, so a
// traversal attempt is never hidden behind a later source's miss.
//
// # Paths
//
// Every request passes through NewRequest before a source sees it. Requests are
// forward-slash separated, relative, and never climb above the root.
// EmbeddedSource matches them case-sensitively on all platforms.
//
// # Ownership
//
// A Descriptor owns the open stream. Callers must Close it on every path.
package assets
