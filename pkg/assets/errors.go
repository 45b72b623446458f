package assets

import "errors"

// Sentinel errors for asset resolution.
var (
	// ErrPathEscape indicates a request that would resolve outside a source root.
	ErrPathEscape = errors.New("path escapes asset root")

	// ErrConfiguration indicates a source or provider that was constructed with
	// unusable settings, such as an empty source list or a missing root.
	ErrConfiguration = errors.New("invalid asset configuration")

	// ErrIO indicates a storage failure while opening or reading a matched asset.
	ErrIO = errors.New("asset i/o failure")
)
