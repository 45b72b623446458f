package assets

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
)

// stubSource records calls and returns canned results.
type stubSource struct {
	name  string
	err   error
	found bool // reports a match without a descriptor
	mu    sync.Mutex
	calls int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Resolve(ctx context.Context, req Request) (*Descriptor, bool, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return nil, s.found, s.err
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func mustEmbedded(t *testing.T, name string, files fstest.MapFS) *EmbeddedSource {
	t.Helper()

	src, err := NewEmbeddedSource(name, files)
	if err != nil {
		t.Fatalf("NewEmbeddedSource(%q) error = %v", name, err)
	}
	return src
}

func TestNewProvider(t *testing.T) {
	t.Parallel()

	t.Run("empty list returns ErrConfiguration", func(t *testing.T) {
		t.Parallel()

		p, err := NewProvider()
		if !errors.Is(err, ErrConfiguration) {
			t.Errorf("NewProvider() error = %v, want ErrConfiguration", err)
		}
		if p != nil {
			t.Error("NewProvider() returned a usable provider")
		}
	})

	t.Run("nil source returns ErrConfiguration", func(t *testing.T) {
		t.Parallel()

		_, err := NewProvider(&stubSource{name: "a"}, nil)
		if !errors.Is(err, ErrConfiguration) {
			t.Errorf("NewProvider() error = %v, want ErrConfiguration", err)
		}
	})

	t.Run("source list is copied", func(t *testing.T) {
		t.Parallel()

		sources := []Source{&stubSource{name: "a"}, &stubSource{name: "b"}}
		p, err := NewProvider(sources...)
		if err != nil {
			t.Fatal(err)
		}
		sources[0] = &stubSource{name: "swapped"}

		if got := p.Sources()[0].Name(); got != "a" {
			t.Errorf("Sources()[0] = %q, want a", got)
		}
	})
}

func TestProvider_Precedence(t *testing.T) {
	t.Parallel()

	a := mustEmbedded(t, "A", fstest.MapFS{"shared.css": {Data: []byte("from A")}})
	b := mustEmbedded(t, "B", fstest.MapFS{"shared.css": {Data: []byte("from B, longer")}})

	tests := []struct {
		name    string
		sources []Source
		want    string
	}{
		{"A before B", []Source{a, b}, "from A"},
		{"B before A", []Source{b, a}, "from B, longer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := NewProvider(tt.sources...)
			if err != nil {
				t.Fatal(err)
			}

			d, ok, err := p.Resolve(context.Background(), "/shared.css")
			if err != nil || !ok {
				t.Fatalf("Resolve() = %v, %v", ok, err)
			}
			defer d.Close()

			body, _ := io.ReadAll(d)
			if string(body) != tt.want {
				t.Errorf("body = %q, want %q", body, tt.want)
			}
			if d.Source != tt.sources[0].Name() {
				t.Errorf("Source = %q, want %q", d.Source, tt.sources[0].Name())
			}
		})
	}
}

func TestProvider_FallsThroughOnMiss(t *testing.T) {
	t.Parallel()

	host := mustEmbedded(t, "host", fstest.MapFS{"site.css": {Data: []byte("host")}})
	lib := mustEmbedded(t, "lib", fstest.MapFS{"lib.js": {Data: []byte("lib")}})

	p, err := NewProvider(host, lib)
	if err != nil {
		t.Fatal(err)
	}

	d, ok, err := p.Resolve(context.Background(), "lib.js")
	if err != nil || !ok {
		t.Fatalf("Resolve(lib.js) = %v, %v", ok, err)
	}
	d.Close()
	if d.Source != "lib" {
		t.Errorf("Source = %q, want lib", d.Source)
	}
}

func TestProvider_NotFound(t *testing.T) {
	t.Parallel()

	first := &stubSource{name: "first"}
	second := &stubSource{name: "second"}
	p, err := NewProvider(first, second)
	if err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{"missing.css", "a/b/c.js", "", "/"} {
		d, ok, err := p.Resolve(context.Background(), path)
		if err != nil {
			t.Errorf("Resolve(%q) error = %v, want nil", path, err)
		}
		if ok || d != nil {
			t.Errorf("Resolve(%q) found = %v, want not found", path, ok)
		}
	}
	if first.callCount() != 4 || second.callCount() != 4 {
		t.Errorf("calls = %d, %d, want every source consulted", first.callCount(), second.callCount())
	}
}

func TestProvider_EscapeRejectedBeforeSources(t *testing.T) {
	t.Parallel()

	stub := &stubSource{name: "stub"}
	p, err := NewProvider(stub)
	if err != nil {
		t.Fatal(err)
	}

	_, ok, err := p.Resolve(context.Background(), "../../etc/passwd")
	if !errors.Is(err, ErrPathEscape) || ok {
		t.Errorf("Resolve() = %v, %v, want ErrPathEscape", ok, err)
	}
	if stub.callCount() != 0 {
		t.Errorf("source consulted %d times for an escaping path", stub.callCount())
	}
}

func TestProvider_SourceErrorStopsIteration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{"path escape", ErrPathEscape},
		{"io failure", ErrIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			failing := &stubSource{name: "failing", err: tt.err}
			fallback := mustEmbedded(t, "fallback", fstest.MapFS{"x.css": {Data: []byte("x")}})

			p, err := NewProvider(failing, fallback)
			if err != nil {
				t.Fatal(err)
			}

			d, ok, err := p.Resolve(context.Background(), "x.css")
			if !errors.Is(err, tt.err) {
				t.Errorf("Resolve() error = %v, want %v", err, tt.err)
			}
			if ok || d != nil {
				t.Error("Resolve() fell through to a later source after an error")
			}
		})
	}
}

func TestProvider_MatchWithoutDescriptor(t *testing.T) {
	t.Parallel()

	broken := &stubSource{name: "broken", found: true}
	after := &stubSource{name: "after"}
	p, err := NewProvider(broken, after)
	if err != nil {
		t.Fatal(err)
	}

	d, ok, err := p.Resolve(context.Background(), "css/site.css")
	if !errors.Is(err, ErrIO) {
		t.Fatalf("Resolve() error = %v, want ErrIO", err)
	}
	if ok || d != nil {
		t.Errorf("Resolve() = %v, %v, want no match", d, ok)
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("error %q does not name the source", err)
	}
	if n := after.callCount(); n != 0 {
		t.Errorf("later source called %d times, want 0", n)
	}
}

func TestProvider_DirectoryEscapeExample(t *testing.T) {
	t.Parallel()

	dir, err := NewDirectorySource(DirectoryOptions{RootPath: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewProvider(dir)
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = p.Resolve(context.Background(), "../../etc/passwd")
	if !errors.Is(err, ErrPathEscape) {
		t.Errorf("Resolve() error = %v, want ErrPathEscape", err)
	}
}

func TestProvider_CancelledContext(t *testing.T) {
	t.Parallel()

	stub := &stubSource{name: "stub"}
	p, err := NewProvider(stub)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := p.Resolve(ctx, "a.css"); !errors.Is(err, context.Canceled) {
		t.Errorf("Resolve() error = %v, want context.Canceled", err)
	}
	if stub.callCount() != 0 {
		t.Error("source consulted after cancellation")
	}
}

func TestProvider_Concurrent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "host.css", "h")
	dir, err := NewDirectorySource(DirectoryOptions{RootPath: root})
	if err != nil {
		t.Fatal(err)
	}
	lib := mustEmbedded(t, "lib", fstest.MapFS{"lib.js": {Data: []byte("l")}})
	p, err := NewProvider(dir, lib)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := "host.css"
			if i%2 == 0 {
				path = "lib.js"
			}
			for j := 0; j < 25; j++ {
				d, ok, err := p.Resolve(context.Background(), path)
				if err != nil || !ok {
					t.Errorf("Resolve(%q) = %v, %v", path, ok, err)
					return
				}
				d.Close()
			}
		}(i)
	}
	wg.Wait()
}
