// Package admin serves the configuration-editing HTTP API and the metrics
// endpoint.
package admin

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultShutdownTimeout bounds graceful shutdown when none is configured.
const DefaultShutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	// Addr is the listen address, e.g. "127.0.0.1:7417".
	Addr string
	// Metrics serves /metrics when non-nil.
	Metrics http.Handler
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// NewRouter creates the chi router with every admin route.
//
// Routes:
//   - GET    /units
//   - GET    /units/{id}/config
//   - PUT    /units/{id}/config?mode=preview|persist
//   - DELETE /units/{id}/config/preview
//   - GET    /units/{id}/hash
//   - POST   /config/flush
//   - GET    /metrics
func NewRouter(svc Service, metrics http.Handler, logger ports.Logger) http.Handler {
	h := &handler{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Route("/units", func(r chi.Router) {
		r.Get("/", h.listUnits)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/config", h.getConfig)
			r.Put("/config", h.putConfig)
			r.Delete("/config/preview", h.clearPreview)
			r.Get("/hash", h.getHash)
		})
	})

	r.Post("/config/flush", h.flushConfig)

	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}
	return r
}

// requestLogger logs completed requests through logger.
func requestLogger(logger ports.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if logger != nil {
				logger.Info(fmt.Sprintf("%s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(start).Round(time.Microsecond)))
			}
		})
	}
}

// Server runs the admin API until its context is cancelled.
type Server struct {
	server       *http.Server
	logger       ports.Logger
	timeout      time.Duration
	shutdownOnce sync.Once
}

// NewServer creates a stopped server.
func NewServer(svc Service, opts Options, logger ports.Logger) *Server {
	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}
	return &Server{
		server: &http.Server{
			Addr:              opts.Addr,
			Handler:           NewRouter(svc, opts.Metrics, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger:  logger,
		timeout: timeout,
	}
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.server.Addr)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to listen"), "addr", s.server.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		if s.logger != nil {
			s.logger.Info("admin API listening on http://" + ln.Addr().String())
		}
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return zerr.Wrap(err, "admin server failed")
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	return s.Stop(shutdownCtx)
}

// Stop shuts the server down. It is safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if shutdownErr := s.server.Shutdown(ctx); shutdownErr != nil {
			err = zerr.Wrap(shutdownErr, "admin server shutdown failed")
		}
	})
	return err
}
