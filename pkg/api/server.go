// Package api exposes the configuration executor over a JSON HTTP API.
// It is thin request/response glue: decode, run, encode. No HTML, no
// authentication, no sessions.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/srxprov/srxprov/pkg/history"
	"github.com/srxprov/srxprov/pkg/provision"
	"github.com/srxprov/srxprov/pkg/util"
)

// Server wires the executor and history store to HTTP handlers.
type Server struct {
	exec  *provision.Executor
	store history.Store
}

// NewServer creates an API server.
func NewServer(exec *provision.Executor, store history.Store) *Server {
	return &Server{exec: exec, store: store}
}

// Router builds the chi router for the API surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Post("/configure", s.handleConfigure)
		r.Get("/status", s.handleStatus)
		r.Get("/history", s.handleHistory)
		r.Post("/backup", s.handleBackup)
		r.Post("/rollback", s.handleRollback)
	})
	return r
}

// logRequests logs one line per request with method, path, status, and
// duration.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		util.WithFields(map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).Round(time.Millisecond).String(),
		}).Info("Request")
	})
}
