package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// DefaultFile is read from the working directory when no --config is given.
const DefaultFile = "assetd.toml"

// EnvPrefix prefixes environment overrides, e.g. ASSETD_ADDR=:9090.
const EnvPrefix = "ASSETD_"

// Source ordering between host directories and the library's embedded tree.
const (
	OrderHostFirst     = "host-first"
	OrderEmbeddedFirst = "embedded-first"
)

// Config holds all configuration for the application
type Config struct {
	Addr             string   `koanf:"addr"`
	Roots            []string `koanf:"roots"`
	AllowMissingRoot bool     `koanf:"allow_missing_root"`
	Order            string   `koanf:"order"`
	Watch            bool     `koanf:"watch"`
	Verbosity        string   `koanf:"verbosity"`
	LogJSON          bool     `koanf:"log_json"`
	Build            Build    `koanf:"build"`
}

// Build configures the bundling step.
type Build struct {
	Entries   []string `koanf:"entry"`
	OutDir    string   `koanf:"outdir"`
	Minify    bool     `koanf:"minify"`
	Sourcemap bool     `koanf:"sourcemap"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"addr":               "localhost:8080",
		"roots":              []string{"wwwroot"},
		"allow_missing_root": false,
		"order":              OrderHostFirst,
		"watch":              false,
		"verbosity":          "",
		"log_json":           false,
		"build.entry":        []string{"Scripts/app.ts"},
		"build.outdir":       "wwwroot/dist",
		"build.minify":       false,
		"build.sourcemap":    true,
	}
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
//
// configPath names an explicit config file; it must exist. When empty,
// DefaultFile is used if present.
func Load(f *pflag.FlagSet, configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path := configPath
	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// ASSETD_BUILD_OUTDIR -> build.outdir. Underscored keys are single words.
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if f != nil {
		if err := k.Load(posflag.ProviderWithFlag(f, ".", k, flagKey(f)), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that koanf cannot type-check.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	switch c.Order {
	case OrderHostFirst, OrderEmbeddedFirst:
	default:
		errs = append(errs, fmt.Errorf("order must be %q or %q, got %q", OrderHostFirst, OrderEmbeddedFirst, c.Order))
	}
	for i, r := range c.Roots {
		if strings.TrimSpace(r) == "" {
			errs = append(errs, fmt.Errorf("roots[%d] is empty", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config format: %s", path)
	}
}

var envSections = []string{"build_"}

// listKeys are comma-separated in the environment.
var listKeys = map[string]bool{"roots": true, "build.entry": true}

func envValue(name, value string) (string, interface{}) {
	key := envKey(name)
	if listKeys[key] {
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return key, items
	}
	return key, value
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, section := range envSections {
		if strings.HasPrefix(key, section) {
			return strings.TrimSuffix(section, "_") + "." + strings.TrimPrefix(key, section)
		}
	}
	return key
}

// flagKey maps --allow-missing-root to allow_missing_root and
// --build-outdir to build.outdir. Flags that are not config keys map to "".
func flagKey(fs *pflag.FlagSet) func(*pflag.Flag) (string, interface{}) {
	return func(fl *pflag.Flag) (string, interface{}) {
		if fl.Name == "config" {
			return "", nil
		}
		if key, ok := flagRenames[fl.Name]; ok {
			return key, posflag.FlagVal(fs, fl)
		}
		return envKey(EnvPrefix + strings.ToUpper(strings.ReplaceAll(fl.Name, "-", "_"))), posflag.FlagVal(fs, fl)
	}
}
