// Package http exposes a read-only status surface for a running session.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/aretw0/lineup/internal/logging"
	"github.com/aretw0/lineup/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// APIVersion is reported by GET /info.
const APIVersion = "0.1.0"

// Session is the part of a session the status surface reads.
type Session interface {
	ID() string
	Snapshot() domain.Snapshot
}

// Option configures the handler.
type Option func(*server)

// WithMetrics mounts h (usually a promhttp handler) on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *server) {
		s.metrics = h
	}
}

// WithEvents streams b on GET /events.
func WithEvents(b *Broadcaster) Option {
	return func(s *server) {
		s.events = b
	}
}

// WithVersion sets the application version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *server) {
		s.version = v
	}
}

// WithLogger configures the logger used for write failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *server) {
		s.logger = logger
	}
}

type server struct {
	session Session
	metrics http.Handler
	events  *Broadcaster
	version string
	logger  *slog.Logger
}

// NewHandler creates the router for sess.
func NewHandler(sess Session, opts ...Option) http.Handler {
	s := &server{session: sess, version: "dev", logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/health", s.health)
	r.Get("/info", s.info)
	r.Get("/session", s.snapshot)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	if s.events != nil {
		r.Get("/events", s.subscribe)
	}
	return r
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) info(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "lineup",
		"version":     s.version,
		"api_version": APIVersion,
		"session_id":  s.session.ID(),
	})
}

// snapshot answers 503 once the session is closed so probes notice.
func (s *server) snapshot(w http.ResponseWriter, r *http.Request) {
	snap := s.session.Snapshot()
	status := http.StatusOK
	if snap.Closed {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, snap)
}

func (s *server) subscribe(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events := s.events.Subscribe(r.Context())
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data)
			flusher.Flush()
		}
	}
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("status response encode failed", "err", err)
	}
}

// Serve listens on addr and serves h until ctx is done, then shuts down
// gracefully. ready, if not nil, receives the bound address.
func Serve(ctx context.Context, addr string, h http.Handler, logger *slog.Logger, ready func(net.Addr)) error {
	if logger == nil {
		logger = logging.NewNop()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if ready != nil {
		ready(ln.Addr())
	}

	// Request contexts derive from ctx so open event streams end on shutdown.
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Info("status server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("status server shutdown: %w", err)
		}
		return nil
	}
}
