// Package output renders console reports.
package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// SourceLine is one row of the source listing.
type SourceLine struct {
	Name    string
	Kind    string // "embedded" or "directory"
	Root    string
	Files   int  // embedded sources only
	Missing bool // directory root does not exist yet
}

// Override is a library asset shadowed by another source.
type Override struct {
	Path string
	By   string
}

// SourceReport is what `assetd list` prints.
type SourceReport struct {
	Order     string
	Sources   []SourceLine
	Overrides []Override
}

// PrintSourceReport writes the layered sources in precedence order, followed
// by the library assets that a higher source replaces.
func PrintSourceReport(w io.Writer, r SourceReport) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Fprintln(w, "Asset sources")
	bold.Fprintln(w, "=============")
	fmt.Fprintf(w, "Order: %s\n\n", r.Order)

	for i, s := range r.Sources {
		fmt.Fprintf(w, "%d. ", i+1)
		cyan.Fprintf(w, "%s", s.Name)
		fmt.Fprintf(w, " (%s)\n", s.Kind)
		switch {
		case s.Kind == "embedded":
			fmt.Fprintf(w, "   %d files\n", s.Files)
		case s.Missing:
			yellow.Fprintf(w, "   %s (missing)\n", s.Root)
		default:
			fmt.Fprintf(w, "   %s\n", s.Root)
		}
	}
	fmt.Fprintln(w)

	if len(r.Overrides) == 0 {
		green.Fprintln(w, "No library assets are overridden.")
		return
	}

	yellow.Fprintf(w, "OVERRIDDEN LIBRARY ASSETS: %d\n", len(r.Overrides))
	for _, o := range r.Overrides {
		fmt.Fprintf(w, "  %s", o.Path)
		cyan.Fprintf(w, " <- %s\n", o.By)
	}
}
