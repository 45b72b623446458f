// Package library packages the built-in web assets and composes them with
// host-supplied sources.
package library

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/ritzau/assetd/pkg/assets"
)

//go:embed all:wwwroot
var files embed.FS

// EmbeddedName is the source name of the library's own assets.
const EmbeddedName = "library"

// Order selects where the embedded source sits relative to host sources.
type Order int

const (
	// OrderHostFirst lets host directories shadow library assets.
	OrderHostFirst Order = iota
	// OrderEmbeddedFirst lets library assets shadow host directories.
	OrderEmbeddedFirst
)

// ParseOrder maps the config spelling to an Order.
func ParseOrder(s string) (Order, error) {
	switch s {
	case "", "host-first":
		return OrderHostFirst, nil
	case "embedded-first":
		return OrderEmbeddedFirst, nil
	default:
		return OrderHostFirst, fmt.Errorf("%w: unknown source order %q", assets.ErrConfiguration, s)
	}
}

func (o Order) String() string {
	if o == OrderEmbeddedFirst {
		return "embedded-first"
	}
	return "host-first"
}

// FS returns the embedded wwwroot tree.
func FS() fs.FS {
	sub, err := fs.Sub(files, "wwwroot")
	if err != nil {
		// wwwroot is embedded above, Sub only fails for invalid names.
		panic(err)
	}
	return sub
}

// Embedded returns a source over the library's wwwroot.
func Embedded() (*assets.EmbeddedSource, error) {
	return assets.NewEmbeddedSource(EmbeddedName, FS())
}

// NewProvider composes host sources with the embedded library source.
// With no host sources the provider serves the library assets alone.
func NewProvider(order Order, host ...assets.Source) (*assets.Provider, error) {
	embedded, err := Embedded()
	if err != nil {
		return nil, err
	}

	sources := make([]assets.Source, 0, len(host)+1)
	if order == OrderEmbeddedFirst {
		sources = append(sources, embedded)
		sources = append(sources, host...)
	} else {
		sources = append(sources, host...)
		sources = append(sources, embedded)
	}

	return assets.NewProvider(sources...)
}

// Override records a library asset served by another source.
type Override struct {
	Path string
	By   string
}

// Overrides resolves every library asset through p and reports the ones a
// different source wins.
func Overrides(ctx context.Context, p *assets.Provider) ([]Override, error) {
	embedded, err := Embedded()
	if err != nil {
		return nil, err
	}

	var out []Override
	for _, path := range embedded.Paths() {
		d, ok, err := p.Resolve(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", path, err)
		}
		if !ok {
			continue
		}
		d.Close()
		if d.Source != EmbeddedName {
			out = append(out, Override{Path: path, By: d.Source})
		}
	}
	return out, nil
}
