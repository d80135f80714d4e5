// Package server exposes the bridge, the directory provider and the call
// state machine over HTTP, so a host shim or the UI can drive them.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/roach88/callerid/internal/bridge"
	"github.com/roach88/callerid/internal/callstate"
	"github.com/roach88/callerid/internal/directory"
)

const shutdownTimeout = 5 * time.Second

// Server holds the HTTP handlers.
type Server struct {
	bridge    *bridge.Bridge
	directory *directory.Provider
	machine   *callstate.Machine
	logger    *slog.Logger
	origins   []string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithCORSOrigins allows browser requests from origins.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

// New returns a Server.
func New(b *bridge.Bridge, d *directory.Provider, m *callstate.Machine, opts ...Option) *Server {
	s := &Server{
		bridge:    b,
		directory: d,
		machine:   m,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")
	return s
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	if len(s.origins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: s.origins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}).Handler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/callers", func(r chi.Router) {
			r.Get("/", s.listCallers)
			r.Post("/", s.putCaller)
			r.Post("/batch", s.putCallers)
			r.Get("/keys", s.listKeys)
			r.Post("/delete", s.deleteCallers)
			r.Post("/clear", s.clearCallers)
			r.Get("/{number}", s.getCaller)
			r.Delete("/{number}", s.deleteCaller)
		})
		r.Route("/settings", func(r chi.Router) {
			r.Get("/show-popup", s.getShowPopup)
			r.Put("/show-popup", s.setShowPopup)
			r.Get("/dial-country-code", s.getDialCountryCode)
		})
		r.Route("/permissions/overlay", func(r chi.Router) {
			r.Get("/", s.hasOverlayPermission)
			r.Post("/request", s.requestOverlayPermission)
		})
	})

	r.Route("/directory", func(r chi.Router) {
		r.Get("/directories", s.directories)
		r.Get("/phone_lookup/{number}", s.phoneLookup)
		r.Get("/photo/primary_photo", s.primaryPhoto)
		r.Get("/query", s.query)
		r.Get("/asset", s.asset)
	})

	r.Route("/telephony", func(r chi.Router) {
		r.Post("/events", s.telephonyEvent)
		r.Post("/call-service-number", s.callServiceNumber)
	})

	r.Get("/overlay", s.overlay)
	r.Post("/overlay/dismiss", s.dismissOverlay)

	return r
}

// requestLogger logs one line per request through slog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
