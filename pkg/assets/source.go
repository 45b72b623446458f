package assets

import "context"

// Source is a single origin of assets.
//
// Resolve returns (d, true, nil) on a match and (nil, false, nil) when the
// source does not have the path. Any error means the lookup failed and the
// caller must not try to interpret the path elsewhere.
type Source interface {
	Name() string
	Resolve(ctx context.Context, req Request) (*Descriptor, bool, error)
}
