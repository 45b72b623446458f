package contenttype

import (
	"sync"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		want string
	}{
		{"css with dot", ".css", "text/css"},
		{"css without dot", "css", "text/css"},
		{"uppercase", ".CSS", "text/css"},
		{"mixed case without dot", "Js", "application/javascript"},
		{"png", ".png", "image/png"},
		{"svg", ".svg", "image/svg+xml"},
		{"woff2", ".woff2", "font/woff2"},
		{"source map", ".map", "application/json"},
		{"unknown extension", ".xyz", Fallback},
		{"empty", "", Fallback},
		{"bare dot", ".", Fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.ext); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}

func TestForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"css/style.css", "text/css"},
		{"dist/main.js", "application/javascript"},
		{"img/logo.SVG", "image/svg+xml"},
		{"LICENSE", Fallback},
		{"archive.tar.gz", Fallback},
	}

	for _, tt := range tests {
		if got := ForPath(tt.path); got != tt.want {
			t.Errorf("ForPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestKnown(t *testing.T) {
	if !Known("woff2") {
		t.Error("Known(woff2) = false, want true")
	}
	if Known(".bin") {
		t.Error("Known(.bin) = true, want false")
	}
}

func TestResolveConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if got := Resolve(".css"); got != "text/css" {
					t.Errorf("Resolve(.css) = %q", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}
