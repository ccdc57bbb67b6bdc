package web

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"assigntrack/internal/config"
	appLog "assigntrack/internal/log"
	"assigntrack/internal/model"
	"assigntrack/internal/runner"
)

// StatusSource is the subset of the runner the API reads from.
type StatusSource interface {
	LastCycle() runner.CycleStatus
	Batch() []model.AssignmentRecord
}

// Server exposes a small read-only JSON API over the poll loop:
// /health, /api/status (last cycle summary) and /api/assignments
// (last extracted batch).
type Server struct {
	cfg    *config.Config
	source StatusSource
	mux    *http.ServeMux
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, source StatusSource) *Server {
	s := &Server{
		cfg:    cfg,
		source: source,
		mux:    http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/assignments", s.handleAssignments)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.source.LastCycle())
}

func (s *Server) handleAssignments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	batch := s.source.Batch()
	type item struct {
		Title     string `json:"title"`
		Course    string `json:"course"`
		Status    string `json:"status"`
		DueDate   string `json:"due_date"`
		Priority  string `json:"priority"`
		SourceRef string `json:"source_ref"`
	}
	out := make([]item, 0, len(batch))
	for _, rec := range batch {
		out = append(out, item{
			Title:     rec.Title,
			Course:    rec.Course,
			Status:    rec.Status,
			DueDate:   rec.DueDate,
			Priority:  string(rec.Priority),
			SourceRef: rec.SourceRef,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
// Empty username or password counts as disabled.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware protects every endpoint except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		user, pass, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(s.cfg.BasicAuth.Username)) != 1 ||
			subtle.ConstantTimeCompare([]byte(pass), []byte(s.cfg.BasicAuth.Password)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="assigntrack"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to encode JSON response", err)
	}
}
