// Package web serves the session API on the loopback interface. Every /v1
// endpoint requires both a loopback source address and a bearer token; only
// /health is open.
package web

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/frostime/gosession/internal/config"
	"github.com/frostime/gosession/internal/hub"
	"github.com/frostime/gosession/internal/session"
)

// Server is the HTTP front end over the session manager.
type Server struct {
	cfg    *config.Config
	mgr    *session.Manager
	hub    *hub.Hub
	mux    *http.ServeMux
	server *http.Server
}

// New wires the routes and returns a server bound to 127.0.0.1:cfg.Port.
func New(cfg *config.Config, mgr *session.Manager, h *hub.Hub) *Server {
	s := &Server{
		cfg: cfg,
		mgr: mgr,
		hub: h,
		mux: http.NewServeMux(),
	}
	s.registerRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
		Handler:      s.recoverPanics(s.mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // SSE needs no write timeout
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /v1/session/start", s.auth(s.handleStartSession))
	s.mux.HandleFunc("GET /v1/sessions", s.auth(s.handleListSessions))
	s.mux.HandleFunc("GET /v1/session/{id}/info", s.auth(s.handleSessionInfo))
	s.mux.HandleFunc("POST /v1/session/{id}/exec", s.auth(s.handleExec))
	s.mux.HandleFunc("GET /v1/session/{id}/vars", s.auth(s.handleListVars))
	s.mux.HandleFunc("POST /v1/session/{id}/vars/get", s.auth(s.handleGetVars))
	s.mux.HandleFunc("GET /v1/session/{id}/history", s.auth(s.handleHistory))
	s.mux.HandleFunc("GET /v1/session/{id}/stream", s.auth(s.handleStream))
	s.mux.HandleFunc("POST /v1/session/{id}/reset", s.auth(s.handleReset))
	s.mux.HandleFunc("DELETE /v1/session/{id}", s.auth(s.handleCloseSession))
}

// Start begins serving HTTP requests. It blocks until the server is shut down.
func (s *Server) Start() error {
	log.Printf("listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// auth enforces the two-factor check on /v1 routes: the peer must be a
// loopback address and must present the configured bearer token.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		ip := net.ParseIP(host)
		if ip == nil || !ip.IsLoopback() {
			writeError(w, http.StatusForbidden, "Forbidden: only localhost allowed")
			return
		}

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Missing or invalid Authorization header")
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.Token)) != 1 {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		next(w, r)
	}
}

// recoverPanics converts a handler panic into the structured 500 body. The
// token never appears in the response; only the panic value and stack do.
func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			log.Printf("panic in %s %s: %v", r.Method, r.URL.Path, rec)
			writeJSON(w, http.StatusInternalServerError, InternalErrorResponse{
				Detail:    "Internal server error",
				Error:     fmt.Sprintf("%T", rec),
				Message:   fmt.Sprint(rec),
				Traceback: strings.SplitAfter(string(debug.Stack()), "\n"),
			})
		}()
		next.ServeHTTP(w, r)
	})
}
