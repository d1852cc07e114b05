// Package api serves the dashboard's HTTP surface: the zone posture
// matrix, the filtered policy table, logging mutations, the audit
// trail, and a websocket event stream.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/parapet-sh/parapet/internal/audit"
	"github.com/parapet-sh/parapet/internal/clock"
	"github.com/parapet-sh/parapet/internal/config"
	"github.com/parapet-sh/parapet/internal/events"
	"github.com/parapet-sh/parapet/internal/logging"
	"github.com/parapet-sh/parapet/internal/metrics"
	"github.com/parapet-sh/parapet/internal/session"
)

// maxBodyBytes caps mutation request bodies.
const maxBodyBytes = 1 << 20

// Options configures a Server.
type Options struct {
	Config *config.Config
	Store  *session.Store
	Hub    *events.Hub
	Audit  *audit.Store
	Logger *logging.Logger
}

// Server is the dashboard HTTP server.
type Server struct {
	cfg       *config.Config
	store     *session.Store
	hub       *events.Hub
	audit     *audit.Store
	logger    *logging.Logger
	startTime time.Time
	mux       *http.ServeMux
}

// New creates a Server and wires its routes.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.WithComponent("api")
	}
	s := &Server{
		cfg:       opts.Config,
		store:     opts.Store,
		hub:       opts.Hub,
		audit:     opts.Audit,
		logger:    logger,
		startTime: clock.Now(),
	}
	s.initRoutes()
	return s
}

// initRoutes initializes the HTTP router.
func (s *Server) initRoutes() {
	mux := http.NewServeMux()
	s.mux = mux

	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/matrix", s.handleMatrix)
	mux.HandleFunc("GET /api/policies", s.handlePolicies)
	mux.HandleFunc("POST /api/policies/logging", s.handleBulkLogging)
	mux.HandleFunc("POST /api/policies/{id}/logging", s.handleToggleLogging)
	mux.HandleFunc("GET /api/audit", s.handleAudit)
	mux.HandleFunc("GET /api/ws/events", s.handleEventsWS)

	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /healthz", s.handleHealth)
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.loggingMiddleware(s.maxBodyMiddleware(maxBodyBytes, s.mux))
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": clock.Since(s.startTime).Round(time.Second).String(),
		"loaded": s.store.Loaded(),
	})
}

// responseWriter captures the status code for request logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer, so
// the websocket upgrade can hijack the connection.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// loggingMiddleware logs all API requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := clock.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: 200}
		next.ServeHTTP(wrapped, r)

		duration := clock.Since(start)
		if r.URL.Path == "/metrics" || strings.HasPrefix(r.URL.Path, "/api/ws/") {
			return
		}
		attrs := []any{"method", r.Method, "path", r.URL.Path, "status", wrapped.statusCode, "duration", duration.Round(time.Millisecond)}
		switch {
		case wrapped.statusCode >= 500:
			s.logger.Error("request", attrs...)
		case wrapped.statusCode >= 400:
			s.logger.Warn("request", attrs...)
		default:
			s.logger.Info("request", attrs...)
		}
	})
}

// maxBodyMiddleware limits request body sizes to prevent memory
// exhaustion.
func (s *Server) maxBodyMiddleware(maxBytes int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > maxBytes {
			http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		next.ServeHTTP(w, r)
	})
}
