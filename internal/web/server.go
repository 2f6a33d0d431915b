// Package web exposes the HTTP surface of the quote relay: the form
// submission endpoint plus health and metrics.
package web

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// shutdownTimeout is the maximum time to wait for in-flight requests
// during graceful shutdown.
const shutdownTimeout = 30 * time.Second

// ServerConfig holds the configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddr is the address to listen on (e.g., ":8080").
	ListenAddr string

	// Dispatcher handles decoded submissions.
	Dispatcher Dispatcher

	// MaxBodySize bounds the request body in bytes. Zero disables the limit.
	MaxBodySize int64

	// CORSOrigin is the allowed cross-origin value; empty means "*".
	CORSOrigin string

	// TLSConfig enables HTTPS when non-nil.
	TLSConfig *tls.Config
}

// Server is the HTTP server that accepts form submissions and delegates
// them to the relay.
type Server struct {
	config     ServerConfig
	httpServer *http.Server
}

// New creates a new Server with the given configuration.
func New(cfg ServerConfig) *Server {
	r := mux.NewRouter()
	r.Handle("/api/send-quote", NewQuoteHandler(cfg.Dispatcher, cfg.MaxBodySize)).
		Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/healthz", HealthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	r.Use(Logger)
	r.Use(CORSWithOrigin(cfg.CORSOrigin))

	return &Server{
		config: cfg,
		httpServer: &http.Server{
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// ListenAndServe starts the HTTP server and blocks until the context is
// cancelled. On cancellation it stops accepting new connections and waits
// up to 30 seconds for in-flight requests to complete.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return err
	}
	if s.config.TLSConfig != nil {
		ln = tls.NewListener(ln, s.config.TLSConfig)
	}

	slog.Info("HTTP server listening",
		"addr", ln.Addr().String(),
		"tls_enabled", s.config.TLSConfig != nil,
	)

	go func() {
		<-ctx.Done()
		slog.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("forced shutdown", "error", err)
		}
	}()

	if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
