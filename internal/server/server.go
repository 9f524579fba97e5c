// Package server assembles the document server: routes, middleware and
// the HTTP listener lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/iudanet/gophsync/internal/docstore"
	"github.com/iudanet/gophsync/internal/server/handlers"
	"github.com/iudanet/gophsync/internal/server/middleware"
)

const (
	healthPath      = "/api/v1/health"
	shutdownTimeout = 10 * time.Second
)

// Config параметры HTTP сервера
type Config struct {
	Version         string             // Version версия, отдаваемая health check
	JWT             handlers.JWTConfig // JWT параметры проверки токенов
	RateLimit       int                // RateLimit запросов на IP за RateLimitWindow; 0 = без ограничения
	RateLimitWindow time.Duration      // RateLimitWindow окно rate limiter
}

// Server is the document server HTTP front.
type Server struct {
	handler http.Handler
	limiter *middleware.RateLimiter
	logger  *slog.Logger
}

// New wires handlers and middleware around store.
func New(logger *slog.Logger, store docstore.Store, cfg Config) *Server {
	s := &Server{logger: logger}

	health := handlers.NewHealthHandler(logger, cfg.Version)
	docs := handlers.NewDocumentsHandler(logger, store)
	auth := middleware.AuthMiddleware(logger, cfg.JWT)

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+healthPath, health.Health)
	mux.Handle("GET /api/v1/collections/{collection}/documents", auth(http.HandlerFunc(docs.List)))
	mux.Handle("POST /api/v1/collections/{collection}/documents", auth(http.HandlerFunc(docs.Create)))
	mux.Handle("GET /api/v1/collections/{collection}/documents/{id}", auth(http.HandlerFunc(docs.Get)))
	mux.Handle("PATCH /api/v1/collections/{collection}/documents/{id}", auth(http.HandlerFunc(docs.Patch)))
	mux.Handle("DELETE /api/v1/collections/{collection}/documents/{id}", auth(http.HandlerFunc(docs.Delete)))

	var handler http.Handler = mux
	if cfg.RateLimit > 0 {
		window := cfg.RateLimitWindow
		if window <= 0 {
			window = time.Minute
		}
		s.limiter = middleware.NewRateLimiter(cfg.RateLimit, window, logger)
		handler = middleware.RateLimitMiddleware(s.limiter)(handler)
	}
	handler = middleware.LoggingWithSkip(logger, []string{healthPath})(handler)
	handler = middleware.RecoveryMiddleware(logger)(handler)

	s.handler = handler
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Close releases background resources.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errC := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening", "addr", ln.Addr().String())
		errC <- srv.Serve(ln)
	}()

	select {
	case err := <-errC:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}
