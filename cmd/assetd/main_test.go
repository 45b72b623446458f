package main

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ritzau/assetd/pkg/assets"
	"github.com/ritzau/assetd/pkg/config"
)

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		args     []string
		wantCmd  string
		wantArgs []string
	}{
		{nil, "serve", nil},
		{[]string{"serve", "--addr", ":9090"}, "serve", []string{"--addr", ":9090"}},
		{[]string{"build", "--build-minify"}, "build", []string{"--build-minify"}},
		{[]string{"list"}, "list", nil},
		{[]string{"--watch"}, "serve", []string{"--watch"}},
	}

	for _, tt := range tests {
		cmd, args := splitCommand(tt.args)
		if cmd != tt.wantCmd {
			t.Errorf("splitCommand(%v) cmd = %q, want %q", tt.args, cmd, tt.wantCmd)
		}
		if len(args) != len(tt.wantArgs) || (len(args) > 0 && !reflect.DeepEqual(args, tt.wantArgs)) {
			t.Errorf("splitCommand(%v) args = %v, want %v", tt.args, args, tt.wantArgs)
		}
	}
}

func TestHostSources(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "later")

	cfg := &config.Config{Roots: []string{dir}}
	hosts, err := hostSources(cfg)
	if err != nil {
		t.Fatalf("hostSources() error = %v", err)
	}
	if len(hosts) != 1 || hosts[0].Name() != dir {
		t.Fatalf("hosts = %v", hosts)
	}

	cfg.Roots = []string{dir, missing}
	if _, err := hostSources(cfg); !errors.Is(err, assets.ErrConfiguration) {
		t.Errorf("missing root error = %v, want ErrConfiguration", err)
	}

	cfg.AllowMissingRoot = true
	hosts, err = hostSources(cfg)
	if err != nil {
		t.Fatalf("hostSources() with AllowMissingRoot error = %v", err)
	}
	if len(hosts) != 2 {
		t.Errorf("got %d hosts, want 2", len(hosts))
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Errorf("hostSources created %s", missing)
	}
}
