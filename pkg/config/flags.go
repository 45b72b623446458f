package config

import "github.com/spf13/pflag"

// flagRenames covers flags whose names differ from their config keys.
var flagRenames = map[string]string{
	"root":        "roots",
	"build-entry": "build.entry",
}

// Flags registers the configuration flags on f. Defaults live in Load, so the
// flag defaults shown here are for help output only.
func Flags(f *pflag.FlagSet) {
	d := defaults()

	f.String("config", "", "Path to a config file (.toml, .yaml); defaults to ./"+DefaultFile+" if present")
	f.String("addr", d["addr"].(string), "Address the host listens on")
	f.StringSlice("root", d["roots"].([]string), "Host asset directory (repeatable)")
	f.Bool("allow-missing-root", false, "Accept host directories that do not exist yet")
	f.String("order", d["order"].(string), "Source precedence: host-first or embedded-first")
	f.Bool("watch", false, "Watch host directories and push reload events to browsers")
	f.String("verbosity", "", "Log level: trace, debug, info, warn, error")
	f.Bool("log-json", false, "Write logs as JSON")
	f.StringSlice("build-entry", d["build.entry"].([]string), "Bundler entry point (repeatable)")
	f.String("build-outdir", d["build.outdir"].(string), "Bundler output directory")
	f.Bool("build-minify", false, "Minify bundler output")
	f.Bool("build-sourcemap", true, "Emit source maps")
}
