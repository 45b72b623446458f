// Package bundle compiles TypeScript and JavaScript entry points into a host
// asset directory with esbuild.
package bundle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/ritzau/assetd/pkg/logging"
)

// Options configures a build.
type Options struct {
	Entries   []string
	OutDir    string
	Minify    bool
	Sourcemap bool

	// WorkDir resolves relative entries and OutDir. Defaults to the current
	// directory.
	WorkDir string
}

// Result lists the files a build wrote.
type Result struct {
	Files    []string // absolute paths
	Warnings int
}

// Build bundles each entry into OutDir. All esbuild errors are returned
// together.
func Build(opts Options) (*Result, error) {
	if len(opts.Entries) == 0 {
		return nil, errors.New("no entry points configured")
	}
	if opts.OutDir == "" {
		return nil, errors.New("no output directory configured")
	}

	workDir := opts.WorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolving working directory: %w", err)
		}
		workDir = wd
	}
	workDir, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}

	sourcemap := api.SourceMapNone
	if opts.Sourcemap {
		sourcemap = api.SourceMapLinked
	}

	logging.Info("bundling", "entries", len(opts.Entries), "outdir", opts.OutDir)

	result := api.Build(api.BuildOptions{
		EntryPoints:       opts.Entries,
		AbsWorkingDir:     workDir,
		Outdir:            opts.OutDir,
		Bundle:            true,
		Write:             true,
		Platform:          api.PlatformBrowser,
		Target:            api.ES2020,
		Sourcemap:         sourcemap,
		MinifyWhitespace:  opts.Minify,
		MinifyIdentifiers: opts.Minify,
		MinifySyntax:      opts.Minify,
		LogLevel:          api.LogLevelSilent,
	})

	for _, w := range result.Warnings {
		logging.Warn("bundler warning", "message", formatMessage(w))
	}
	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			msgs = append(msgs, formatMessage(e))
		}
		return nil, fmt.Errorf("bundling failed with %d error(s): %s", len(msgs), strings.Join(msgs, "; "))
	}

	files := make([]string, 0, len(result.OutputFiles))
	for _, f := range result.OutputFiles {
		files = append(files, f.Path)
	}

	logging.Info("bundle complete", "files", len(files), "warnings", len(result.Warnings))
	return &Result{Files: files, Warnings: len(result.Warnings)}, nil
}

func formatMessage(m api.Message) string {
	if m.Location == nil {
		return m.Text
	}
	return fmt.Sprintf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, m.Text)
}
