package api

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/fmuoria/vocational-dashboard/internal/models"
	"github.com/fmuoria/vocational-dashboard/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Authenticator checks login credentials against the roster
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.UserRecord, error)
	TotalUsers(ctx context.Context) int
	Refresh(ctx context.Context) error
}

// ResultsProvider looks up a student's test results
type ResultsProvider interface {
	GetFullResults(ctx context.Context, email string) (*models.ResultRecord, error)
	TotalRecords(ctx context.Context) int
	LastRefresh() (time.Time, bool)
	Refresh(ctx context.Context) error
}

// Server handles HTTP requests
type Server struct {
	auth     Authenticator
	results  ResultsProvider
	sessions *session.Manager
	pages    map[string]*template.Template
}

// NewServer creates a new dashboard server
func NewServer(auth Authenticator, results ResultsProvider, sessions *session.Manager) *Server {
	return &Server{
		auth:     auth,
		results:  results,
		sessions: sessions,
		pages:    parsePages("login", "dashboard", "noresults", "error"),
	}
}

func parsePages(names ...string) map[string]*template.Template {
	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		pages[name] = template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/"+name+".html"))
	}
	return pages
}

// Router returns the HTTP router
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /dashboard", s.requireSession(msgLoginRequired, s.handleDashboard))
	mux.HandleFunc("GET /dashboard/export", s.requireSession(msgLoginRequired, s.handleExport))
	mux.HandleFunc("GET /logout", s.handleLogout)
	mux.HandleFunc("GET /refresh", s.requireSession("", s.handleRefresh))
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	mux.HandleFunc("/", s.handleNotFound)

	return s.loggingMiddleware(s.recoverMiddleware(mux))
}

// handleHealth reports how many rows each worksheet holds
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		Status:  "healthy",
		Users:   s.auth.TotalUsers(r.Context()),
		Records: s.results.TotalRecords(r.Context()),
	}
	if t, ok := s.results.LastRefresh(); ok {
		resp.LastRefresh = t.Format(time.RFC3339)
	}
	if resp.Users == 0 || resp.Records == 0 {
		resp.Status = "degraded"
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// respondJSON sends a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON response: %v", err)
	}
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("[%s] %s %s %d %s %s", id, r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond), r.RemoteAddr)
	})
}

// recoverMiddleware turns a panicking handler into the 500 page
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				log.Printf("Panic serving %s %s: %v", r.Method, r.URL.Path, v)
				s.renderInternalError(w, r)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
