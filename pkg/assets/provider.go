package assets

import (
	"context"
	"errors"
	"fmt"

	"github.com/ritzau/assetd/pkg/logging"
)

// Provider dispatches requests to an ordered list of sources.
// The first source that has the path wins. The list is fixed at construction,
// so a Provider is safe for concurrent use.
type Provider struct {
	sources []Source
}

// NewProvider creates a Provider over sources, in priority order.
// Returns ErrConfiguration if the list is empty or contains nil.
func NewProvider(sources ...Source) (*Provider, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: provider needs at least one source", ErrConfiguration)
	}
	for i, src := range sources {
		if src == nil {
			return nil, fmt.Errorf("%w: source %d is nil", ErrConfiguration, i)
		}
	}

	return &Provider{sources: append([]Source(nil), sources...)}, nil
}

// Resolve canonicalizes raw and resolves it against the sources in order.
// A missing asset is reported as (nil, false, nil). The first source error
// ends the lookup and is returned wrapped with the source name.
func (p *Provider) Resolve(ctx context.Context, raw string) (*Descriptor, bool, error) {
	req, err := NewRequest(raw)
	if err != nil {
		logging.WarnContext(ctx, "rejected asset path", "path", raw, "error", err)
		return nil, false, err
	}
	return p.ResolveRequest(ctx, req)
}

// ResolveRequest resolves an already canonical request.
func (p *Provider) ResolveRequest(ctx context.Context, req Request) (*Descriptor, bool, error) {
	for _, src := range p.sources {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}

		d, ok, err := src.Resolve(ctx, req)
		if err != nil {
			if errors.Is(err, ErrPathEscape) {
				logging.WarnContext(ctx, "path escape attempt", "source", src.Name(), "path", req.Path())
			}
			return nil, false, fmt.Errorf("source %s: %w", src.Name(), err)
		}
		if ok && d == nil {
			return nil, false, fmt.Errorf("%w: source %s matched %q without a descriptor", ErrIO, src.Name(), req.Path())
		}
		if ok {
			logging.TraceContext(ctx, "asset resolved", "source", src.Name(), "path", req.Path())
			return d, true, nil
		}
	}

	return nil, false, nil
}

// Sources returns a copy of the source list in priority order.
func (p *Provider) Sources() []Source {
	return append([]Source(nil), p.sources...)
}
