// Package auth authenticates students against the cached roster worksheet.
//
// Passwords are stored and compared as plain text, exactly as they appear in
// the roster. This is a known weakness of the roster format.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/fmuoria/vocational-dashboard/internal/cache"
	"github.com/fmuoria/vocational-dashboard/internal/models"
)

// Roster column names
const (
	PasswordColumn = "Contraseña"
	FullNameColumn = "Nombre completo"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong password
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserNotFound is returned by lookups that do not check a password
	ErrUserNotFound = errors.New("user not found")
)

// Manager looks users up in the roster cache
type Manager struct {
	users *cache.Cache
}

// NewManager creates a new auth manager over the roster cache
func NewManager(users *cache.Cache) *Manager {
	return &Manager{
		users: users,
	}
}

// Authenticate returns the first roster entry whose normalized email and
// exact password match. Unknown emails, wrong passwords and an empty roster
// all yield ErrInvalidCredentials; a failed roster fetch is returned wrapped.
func (m *Manager) Authenticate(ctx context.Context, email, password string) (*models.UserRecord, error) {
	rs, err := m.users.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}
	if rs.Len() == 0 {
		log.Printf("No users loaded")
		return nil, ErrInvalidCredentials
	}

	normalized := models.NormalizeEmail(email)
	row, ok := rs.Find(func(row models.Row) bool {
		return row.Get(models.EmailNormalizedColumn) == normalized &&
			row.Get(PasswordColumn) == password
	})
	if !ok {
		log.Printf("Login failed for %s", email)
		return nil, ErrInvalidCredentials
	}

	user := userFromRow(row)
	log.Printf("Login succeeded for %s", user.FullName)
	return &user, nil
}

// GetUserByEmail returns the first roster entry for email
func (m *Manager) GetUserByEmail(ctx context.Context, email string) (*models.UserRecord, error) {
	rs, err := m.users.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}

	row, ok := rs.FindByEmail(email)
	if !ok {
		return nil, ErrUserNotFound
	}

	user := userFromRow(row)
	return &user, nil
}

// UserExists reports whether the roster has an entry for email
func (m *Manager) UserExists(ctx context.Context, email string) bool {
	_, err := m.GetUserByEmail(ctx, email)
	return err == nil
}

// TotalUsers returns the number of roster entries
func (m *Manager) TotalUsers(ctx context.Context) int {
	return m.users.Count(ctx)
}

// Refresh reloads the roster
func (m *Manager) Refresh(ctx context.Context) error {
	return m.users.Refresh(ctx)
}

func userFromRow(row models.Row) models.UserRecord {
	return models.UserRecord{
		Email:    row.Get(models.EmailColumn),
		FullName: row.Get(FullNameColumn),
		Password: row.Get(PasswordColumn),
	}
}
