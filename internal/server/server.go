// Package server provides the HTTP server for posecoach practice sessions.
package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/posecoach/internal/scoring"
	"github.com/ayusman/posecoach/internal/server/api"
	"github.com/ayusman/posecoach/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	// Engine scores frames. Required.
	Engine *scoring.Engine
	// Store persists pose edits. Without it the pose library is read-only.
	Store *store.Store
}

// Server represents the HTTP server for the posecoach application.
type Server struct {
	config   Config
	mux      *http.ServeMux
	start    time.Time
	library  *library
	sessions *api.SessionManager
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config:  config,
		mux:     http.NewServeMux(),
		start:   time.Now(),
		library: newLibrary(config.Store, config.Engine),
	}
	s.sessions = api.NewSessionManager(s.library.Engine)
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	poseHandler := api.NewPoseHandler(s.library)
	s.mux.Handle("/api/poses", poseHandler)
	s.mux.Handle("/api/poses/", poseHandler)

	sessionHandler := api.NewSessionHandler(s.sessions)
	streamHandler := NewStreamHandler(s.sessions)

	// Route between the REST handler and the WebSocket stream: /api/sessions/{id}/stream
	sessionRouter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/stream") {
			streamHandler.ServeHTTP(w, r)
			return
		}
		sessionHandler.ServeHTTP(w, r)
	})
	s.mux.Handle("/api/sessions", sessionRouter)
	s.mux.Handle("/api/sessions/", sessionRouter)

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Engine returns the engine new sessions are started on. It changes when the
// pose library is edited.
func (s *Server) Engine() *scoring.Engine {
	return s.library.Engine()
}

// Sessions returns the active session manager.
func (s *Server) Sessions() *api.SessionManager {
	return s.sessions
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status":   "ok",
		"uptime":   time.Since(s.start).String(),
		"poses":    s.library.Registry().Len(),
		"sessions": s.sessions.Len(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
