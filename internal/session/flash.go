package session

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
)

// FlashCookieName is the cookie holding one-time notices across redirects
const FlashCookieName = "flash"

// Category classifies how a notice is displayed
type Category string

const (
	CategorySuccess Category = "success"
	CategoryInfo    Category = "info"
	CategoryError   Category = "error"
)

// Flash is a one-time notice shown on the next rendered page
type Flash struct {
	Category Category `json:"category"`
	Message  string   `json:"message"`
}

// AddFlash appends a notice to the ones already queued on the request
func (m *Manager) AddFlash(w http.ResponseWriter, r *http.Request, category Category, message string) {
	flashes := readFlashes(r)
	flashes = append(flashes, Flash{Category: category, Message: message})
	m.writeFlashes(w, flashes)
}

// PopFlashes returns the queued notices and clears them
func (m *Manager) PopFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	flashes := readFlashes(r)
	if len(flashes) > 0 {
		m.writeFlashes(w, nil)
	}
	return flashes
}

func (m *Manager) writeFlashes(w http.ResponseWriter, flashes []Flash) {
	cookie := &http.Cookie{
		Name:     FlashCookieName,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if len(flashes) == 0 {
		cookie.MaxAge = -1
	} else {
		payload, err := json.Marshal(flashes)
		if err != nil {
			return
		}
		cookie.Value = base64.RawURLEncoding.EncodeToString(payload)
	}
	http.SetCookie(w, cookie)
}

func readFlashes(r *http.Request) []Flash {
	cookie, err := r.Cookie(FlashCookieName)
	if err != nil || cookie == nil {
		return nil
	}
	value := strings.TrimSpace(cookie.Value)
	if value == "" {
		return nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal(decoded, &flashes); err != nil {
		return nil
	}

	valid := flashes[:0]
	for _, f := range flashes {
		f.Message = strings.TrimSpace(f.Message)
		switch f.Category {
		case CategorySuccess, CategoryInfo, CategoryError:
		default:
			continue
		}
		if f.Message != "" {
			valid = append(valid, f)
		}
	}
	return valid
}
