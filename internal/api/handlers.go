package api

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/fmuoria/vocational-dashboard/internal/auth"
	"github.com/fmuoria/vocational-dashboard/internal/export"
	"github.com/fmuoria/vocational-dashboard/internal/models"
	"github.com/fmuoria/vocational-dashboard/internal/results"
	"github.com/fmuoria/vocational-dashboard/internal/session"
)

const (
	msgBlankFields      = "Por favor ingresa tu email y contraseña"
	msgBadCredentials   = "Email o contraseña incorrectos"
	msgLoginRequired    = "Por favor inicia sesión para ver tus resultados"
	msgRefreshOK        = "Datos actualizados correctamente"
	msgRefreshFailed    = "Error al actualizar los datos"
	msgNothingToExport  = "No hay resultados para exportar"
	msgNoResults        = "No se encontraron resultados para tu cuenta. Contacta al administrador."
	defaultUserName     = "Usuario"
	lastRefreshLayout   = "2006-01-02 15:04:05"
	xlsxContentType     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	internalErrorStatus = http.StatusInternalServerError
)

// pageData is what every template receives
type pageData struct {
	Title       string
	Flashes     []session.Flash
	Result      *models.ResultRecord
	LastRefresh string
	UserName    string
	Status      int
	Heading     string
	Message     string
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess models.Session)

// requireSession redirects anonymous visitors to the login page, with a
// notice when one is given
func (s *Server) requireSession(notice string, next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.sessions.Read(r)
		if !ok || !sess.Authenticated() {
			if notice != "" {
				s.sessions.AddFlash(w, r, session.CategoryInfo, notice)
			}
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next(w, r, sess)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessions.Read(r); ok {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.sessions.Read(r); ok {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	s.render(w, r, "login", http.StatusOK, &pageData{Title: "Iniciar sesión"})
}

// handleLogin checks the submitted credentials and starts a session
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	password := strings.TrimSpace(r.PostFormValue("password"))
	if email == "" || password == "" {
		s.sessions.AddFlash(w, r, session.CategoryError, msgBlankFields)
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	user, err := s.auth.Authenticate(r.Context(), email, password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			log.Printf("Login error for %s: %v", email, err)
		}
		s.sessions.AddFlash(w, r, session.CategoryError, msgBadCredentials)
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	sess := models.Session{UserEmail: user.Email, UserName: user.FullName}
	if err := s.sessions.Write(w, sess); err != nil {
		log.Printf("Failed to write session for %s: %v", email, err)
		s.renderInternalError(w, r)
		return
	}

	s.sessions.AddFlash(w, r, session.CategorySuccess, fmt.Sprintf("¡Bienvenido/a %s!", user.FullName))
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// handleDashboard shows the signed-in student's results
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, sess models.Session) {
	record, err := s.results.GetFullResults(r.Context(), sess.UserEmail)
	if err != nil {
		if !errors.Is(err, results.ErrNotFound) {
			log.Printf("Failed to load results for %s: %v", sess.UserEmail, err)
		}
		s.render(w, r, "noresults", http.StatusOK, &pageData{
			Title:    "Sin resultados",
			Flashes:  []session.Flash{{Category: session.CategoryError, Message: msgNoResults}},
			UserName: sess.UserName,
		})
		return
	}

	data := &pageData{
		Title:    "Mis resultados",
		Result:   record,
		UserName: sess.UserName,
	}
	if t, ok := s.results.LastRefresh(); ok {
		data.LastRefresh = t.Format(lastRefreshLayout)
	}
	s.render(w, r, "dashboard", http.StatusOK, data)
}

// handleExport downloads the student's results as an Excel workbook
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, sess models.Session) {
	record, err := s.results.GetFullResults(r.Context(), sess.UserEmail)
	if err != nil {
		if !errors.Is(err, results.ErrNotFound) {
			log.Printf("Failed to load results for export for %s: %v", sess.UserEmail, err)
		}
		s.sessions.AddFlash(w, r, session.CategoryError, msgNothingToExport)
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteResultWorkbook(&buf, *record); err != nil {
		log.Printf("Failed to export results for %s: %v", sess.UserEmail, err)
		s.renderInternalError(w, r)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(*record)))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("Failed to send export: %v", err)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	name := defaultUserName
	if sess, ok := s.sessions.Read(r); ok && sess.UserName != "" {
		name = sess.UserName
	}
	s.sessions.Clear(w)
	s.sessions.AddFlash(w, r, session.CategoryInfo, fmt.Sprintf("Hasta luego, %s. Has cerrado sesión correctamente.", name))
	http.Redirect(w, r, "/login", http.StatusFound)
}

// handleRefresh reloads both worksheets from their source
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request, sess models.Session) {
	err := errors.Join(s.auth.Refresh(r.Context()), s.results.Refresh(r.Context()))
	if err != nil {
		log.Printf("Refresh requested by %s failed: %v", sess.UserEmail, err)
		s.sessions.AddFlash(w, r, session.CategoryError, msgRefreshFailed)
	} else {
		s.sessions.AddFlash(w, r, session.CategorySuccess, msgRefreshOK)
	}
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "error", http.StatusNotFound, &pageData{
		Title:   "Página no encontrada",
		Status:  http.StatusNotFound,
		Heading: "Página no encontrada",
		Message: "La página que buscas no existe.",
	})
}

func (s *Server) renderInternalError(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "error", internalErrorStatus, &pageData{
		Title:   "Error del servidor",
		Status:  internalErrorStatus,
		Heading: "Error interno del servidor",
		Message: "Ocurrió un error inesperado. Por favor intenta de nuevo más tarde.",
	})
}

// render executes a page into a buffer first so a template failure can
// still produce a clean error response
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, status int, data *pageData) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Unknown page %q", name)
		http.Error(w, http.StatusText(internalErrorStatus), internalErrorStatus)
		return
	}

	// queued notices come before the page's own
	data.Flashes = append(s.sessions.PopFlashes(w, r), data.Flashes...)

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		log.Printf("Failed to render %s: %v", name, err)
		if name != "error" {
			s.renderInternalError(w, r)
			return
		}
		http.Error(w, http.StatusText(internalErrorStatus), internalErrorStatus)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("Failed to write %s page: %v", name, err)
	}
}
