// Package session stores the signed-in student in an HS256-signed cookie.
//
// The signing key is generated when the process starts, so restarting the
// server signs every student out.
package session

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fmuoria/vocational-dashboard/internal/models"
)

// CookieName is the session cookie name
const CookieName = "session"

// ErrInvalidSession is returned for missing, malformed or foreign cookies
var ErrInvalidSession = errors.New("invalid session")

// Claims is the signed cookie payload
type Claims struct {
	jwt.RegisteredClaims
	UserEmail string `json:"user_email"`
	UserName  string `json:"user_name"`
}

// Manager signs and verifies session cookies
type Manager struct {
	key    []byte
	secure bool
}

// NewManager creates a manager with a fresh random signing key
func NewManager(secure bool) (*Manager, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate session key: %w", err)
	}
	return NewManagerWithKey(key, secure), nil
}

// NewManagerWithKey creates a manager with a fixed signing key
func NewManagerWithKey(key []byte, secure bool) *Manager {
	return &Manager{
		key:    key,
		secure: secure,
	}
}

// Encode signs a session into a cookie value
func (m *Manager) Encode(s models.Session) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  s.UserEmail,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
		UserEmail: s.UserEmail,
		UserName:  s.UserName,
	})

	ss, err := token.SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("signing session: %w", err)
	}
	return ss, nil
}

// Decode verifies a cookie value and returns its session
func (m *Manager) Decode(value string) (models.Session, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (interface{}, error) {
		return m.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return models.Session{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	if !token.Valid || claims.UserEmail == "" {
		return models.Session{}, ErrInvalidSession
	}

	return models.Session{
		UserEmail: claims.UserEmail,
		UserName:  claims.UserName,
	}, nil
}

// Read returns the session carried by the request, if any
func (m *Manager) Read(r *http.Request) (models.Session, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie == nil {
		return models.Session{}, false
	}
	value := strings.TrimSpace(cookie.Value)
	if value == "" {
		return models.Session{}, false
	}

	s, err := m.Decode(value)
	if err != nil {
		return models.Session{}, false
	}
	return s, true
}

// Write stores the session in the response cookie
func (m *Manager) Write(w http.ResponseWriter, s models.Session) error {
	value, err := m.Encode(s)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
