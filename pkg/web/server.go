package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/ritzau/assetd/pkg/assets"
	"github.com/ritzau/assetd/pkg/logging"
	"github.com/ritzau/assetd/pkg/pubsub"
)

// IndexFile is served for the root and for paths ending in a slash.
const IndexFile = "index.html"

const shutdownTimeout = 5 * time.Second

// SourceInfo describes one asset source for /api/sources.
type SourceInfo struct {
	Name  string   `json:"name"`
	Kind  string   `json:"kind"` // "embedded", "directory" or "custom"
	Root  string   `json:"root,omitempty"`
	Files []string `json:"files,omitempty"`
}

// Server is the HTTP host for an asset provider
type Server struct {
	router    *mux.Router
	provider  *assets.Provider
	publisher *pubsub.SSEPublisher
}

// NewServer creates a server that resolves every non-API path through provider
func NewServer(provider *assets.Provider) *Server {
	publisher := pubsub.NewSSEPublisher()

	// New subscribers only need to know about the latest change.
	publisher.ConfigureTopic(pubsub.AssetsTopic, pubsub.TopicConfig{
		BufferSize: 1,
		ReplayAll:  false,
	})

	s := &Server{
		router:    mux.NewRouter(),
		provider:  provider,
		publisher: publisher,
	}
	// Traversal attempts must reach the provider so they are rejected and
	// logged, not silently redirected to a cleaned path.
	s.router.SkipClean(true)
	s.setupRoutes()
	return s
}

// Publisher returns the publisher behind /api/subscribe/assets.
func (s *Server) Publisher() pubsub.Publisher {
	return s.publisher
}

// Handler returns the router wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/subscribe/assets", s.handleSubscribeAssets).Methods(http.MethodGet)
	s.router.HandleFunc("/api/sources", s.handleSources).Methods(http.MethodGet)

	s.router.PathPrefix("/").HandlerFunc(s.handleAsset).Methods(http.MethodGet, http.MethodHead)
}

func (s *Server) handleSubscribeAssets(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sub, err := s.publisher.Subscribe(r.Context(), pubsub.AssetsTopic)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Initial comment establishes the stream (Safari compatibility)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := pubsub.WriteSSE(w, event); err != nil {
				logging.WarnContext(r.Context(), "error writing SSE event", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	sources := s.provider.Sources()
	infos := make([]SourceInfo, 0, len(sources))
	for _, src := range sources {
		info := SourceInfo{Name: src.Name(), Kind: "custom"}
		switch v := src.(type) {
		case *assets.EmbeddedSource:
			info.Kind = "embedded"
			info.Files = v.Paths()
		case *assets.DirectorySource:
			info.Kind = "directory"
			info.Root = v.Root()
		}
		infos = append(infos, info)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(infos); err != nil {
		logging.WarnContext(r.Context(), "failed to encode sources", "error", err)
	}
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p := r.URL.Path
	if p == "" || strings.HasSuffix(p, "/") {
		p += IndexFile
	}

	d, ok, err := s.provider.Resolve(ctx, p)
	switch {
	case errors.Is(err, assets.ErrPathEscape):
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Client went away, nothing to write.
		return
	case err != nil:
		logging.ErrorContext(ctx, "asset resolution failed", "path", p, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	case !ok:
		http.NotFound(w, r)
		return
	}
	defer d.Close()

	h := w.Header()
	h.Set("Content-Type", d.ContentType)
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Asset-Source", d.Source)

	// ServeContent handles Content-Length, Last-Modified, ranges and
	// conditional requests.
	if rs, ok := d.ReadSeeker(); ok {
		http.ServeContent(w, r, d.Path, d.ModTime, rs)
		return
	}

	if d.Length >= 0 {
		h.Set("Content-Length", strconv.FormatInt(d.Length, 10))
	}
	if !d.ModTime.IsZero() {
		h.Set("Last-Modified", d.ModTime.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, d); err != nil {
		logging.DebugContext(ctx, "asset copy interrupted", "path", d.Path, "error", err)
	}
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	logging.Info("serving assets", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		s.publisher.Close()
		return err
	case <-ctx.Done():
	}

	// Ends open SSE streams so Shutdown does not wait on them.
	s.publisher.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
