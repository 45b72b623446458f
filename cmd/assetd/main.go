// Command assetd serves the library's embedded assets layered under host
// asset directories, and bundles host scripts into those directories.
//
// Usage:
//
//	assetd [serve] [flags]   serve assets (default)
//	assetd build [flags]     bundle build.entry into build.outdir
//	assetd list [flags]      print the sources and overridden library assets
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/ritzau/assetd/pkg/assets"
	"github.com/ritzau/assetd/pkg/bundle"
	"github.com/ritzau/assetd/pkg/config"
	"github.com/ritzau/assetd/pkg/library"
	"github.com/ritzau/assetd/pkg/logging"
	"github.com/ritzau/assetd/pkg/output"
	"github.com/ritzau/assetd/pkg/pubsub"
	"github.com/ritzau/assetd/pkg/watcher"
	"github.com/ritzau/assetd/pkg/web"
)

const (
	debounceQuiet   = 100 * time.Millisecond
	debounceMaxWait = time.Second
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cmd, args := splitCommand(args)

	flags := pflag.NewFlagSet("assetd "+cmd, pflag.ContinueOnError)
	config.Flags(flags)
	if err := flags.Parse(args); err != nil {
		return err
	}
	configPath, _ := flags.GetString("config")

	cfg, err := config.Load(flags, configPath)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Verbosity)
	if err != nil {
		return err
	}
	logging.Configure(os.Stdout, level, cfg.LogJSON)

	// Error ignored: maxprocs.Set only fails on an invalid GOMAXPROCS, in
	// which case the runtime default applies.
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		logging.Debug(fmt.Sprintf(format, args...))
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "build":
		return runBuild(cfg)
	case "list":
		return runList(ctx, cfg)
	default:
		return runServe(ctx, cfg)
	}
}

// splitCommand strips a leading subcommand. Anything else is left for the
// flag parser and means serve.
func splitCommand(args []string) (string, []string) {
	if len(args) > 0 {
		switch args[0] {
		case "serve", "build", "list":
			return args[0], args[1:]
		}
	}
	return "serve", args
}

// newProvider layers the configured host roots with the library assets.
func newProvider(cfg *config.Config) (*assets.Provider, []*assets.DirectorySource, library.Order, error) {
	hosts, err := hostSources(cfg)
	if err != nil {
		return nil, nil, 0, err
	}

	order, err := library.ParseOrder(cfg.Order)
	if err != nil {
		return nil, nil, 0, err
	}

	sources := make([]assets.Source, 0, len(hosts))
	for _, h := range hosts {
		sources = append(sources, h)
	}
	provider, err := library.NewProvider(order, sources...)
	if err != nil {
		return nil, nil, 0, err
	}
	return provider, hosts, order, nil
}

func runServe(ctx context.Context, cfg *config.Config) error {
	provider, hosts, order, err := newProvider(cfg)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(provider.Sources()))
	for _, s := range provider.Sources() {
		names = append(names, s.Name())
	}
	logging.Info("asset sources", "order", order.String(), "sources", names)

	server := web.NewServer(provider)

	if cfg.Watch {
		if err := startWatching(ctx, hosts, server.Publisher()); err != nil {
			// Serving works without live reload.
			logging.Warn("live reload disabled", "error", err)
		}
	}

	return server.Start(ctx, cfg.Addr)
}

// hostSources opens one directory source per configured root, named by the
// root as configured.
func hostSources(cfg *config.Config) ([]*assets.DirectorySource, error) {
	hosts := make([]*assets.DirectorySource, 0, len(cfg.Roots))
	for _, root := range cfg.Roots {
		src, err := assets.NewDirectorySource(assets.DirectoryOptions{
			Name:             root,
			RootPath:         root,
			AllowMissingRoot: cfg.AllowMissingRoot,
		})
		if err != nil {
			return nil, err
		}
		hosts = append(hosts, src)
	}
	return hosts, nil
}

func startWatching(ctx context.Context, hosts []*assets.DirectorySource, pub pubsub.Publisher) error {
	if len(hosts) == 0 {
		return errors.New("no host directories configured")
	}

	roots := make([]watcher.Root, 0, len(hosts))
	for _, h := range hosts {
		roots = append(roots, watcher.Root{Name: h.Name(), Path: h.Root()})
	}

	fw, err := watcher.NewFileWatcher(roots)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := watcher.NewDebouncer(fw.Events(), debounceQuiet, debounceMaxWait)
	debouncer.Start(ctx)
	go watcher.Relay(debouncer.Output(), pub)

	return nil
}

func runList(ctx context.Context, cfg *config.Config) error {
	provider, _, order, err := newProvider(cfg)
	if err != nil {
		return err
	}

	report := output.SourceReport{Order: order.String()}
	for _, s := range provider.Sources() {
		line := output.SourceLine{Name: s.Name()}
		switch v := s.(type) {
		case *assets.EmbeddedSource:
			line.Kind = "embedded"
			line.Files = len(v.Paths())
		case *assets.DirectorySource:
			line.Kind = "directory"
			line.Root = v.Root()
			if _, err := os.Stat(v.Root()); err != nil {
				line.Missing = true
			}
		}
		report.Sources = append(report.Sources, line)
	}

	overrides, err := library.Overrides(ctx, provider)
	if err != nil {
		return err
	}
	for _, o := range overrides {
		report.Overrides = append(report.Overrides, output.Override{Path: o.Path, By: o.By})
	}

	output.PrintSourceReport(os.Stdout, report)
	return nil
}

func runBuild(cfg *config.Config) error {
	result, err := bundle.Build(bundle.Options{
		Entries:   cfg.Build.Entries,
		OutDir:    cfg.Build.OutDir,
		Minify:    cfg.Build.Minify,
		Sourcemap: cfg.Build.Sourcemap,
	})
	if err != nil {
		return err
	}
	for _, f := range result.Files {
		logging.Info("wrote", "file", f)
	}
	return nil
}
