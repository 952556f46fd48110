// Package api implements the JSON HTTP API for browsing and streaming the
// movie library.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/carolus/carolus/internal/events"
)

const (
	defaultPageCount = 20
	maxPageCount     = 100
	defaultEvents    = 50
	maxEvents        = 1000
)

// Server is the API server.
type Server struct {
	deps     ServerDeps
	log      *slog.Logger
	registry *events.Registry
}

// NewWithDeps creates a server from explicit dependencies.
func NewWithDeps(deps ServerDeps, log *slog.Logger) (*Server, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		deps:     deps,
		log:      log.With("component", "api"),
		registry: events.DefaultRegistry(),
	}, nil
}

// RegisterRoutes registers API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Movies (GET patterns also answer HEAD)
	mux.HandleFunc("GET /api/movies", s.listMovies)
	mux.HandleFunc("GET /api/movies/search", s.searchMovies)
	mux.HandleFunc("GET /api/movies/{id}", s.getMovie)
	mux.HandleFunc("GET /api/movies/{id}/video", s.streamMovie)
	mux.HandleFunc("GET /api/movies/{id}/history", s.movieHistory)

	// Library
	mux.HandleFunc("POST /api/scan", s.triggerScan)
	mux.HandleFunc("GET /api/events", s.listEvents)
	mux.HandleFunc("GET /api/status", s.getStatus)
}

// Handler returns the routes wrapped in the standard middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return LogRequests(s.log, Recover(s.log, mux))
}

// Error response
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// pathID extracts an integer ID from the URL path.
func pathID(r *http.Request, name string) (int64, error) {
	idStr := r.PathValue(name)
	if idStr == "" {
		return 0, fmt.Errorf("missing path parameter: %s", name)
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, idStr)
	}
	return id, nil
}

// queryInt extracts an optional integer from the query string.
// ok is false when the value is present but not a number.
func queryInt(r *http.Request, name string, defaultVal int) (int, bool) {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal, true
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal, false
	}
	return i, true
}
