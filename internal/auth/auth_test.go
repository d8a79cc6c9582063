package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/fmuoria/vocational-dashboard/internal/cache"
	"github.com/fmuoria/vocational-dashboard/internal/models"
)

type staticSource struct {
	rs  *models.RowSet
	err error
}

func (s staticSource) Fetch(ctx context.Context) (*models.RowSet, error) {
	return s.rs, s.err
}

func newManager(rows ...models.Row) *Manager {
	rs := &models.RowSet{
		Columns: []string{models.EmailColumn, PasswordColumn, FullNameColumn},
		Rows:    rows,
	}
	rs.NormalizeEmails(models.EmailColumn)
	return NewManager(cache.New("usuarios", staticSource{rs: rs}, 0))
}

func user(email, password, name string) models.Row {
	return models.Row{
		models.EmailColumn: email,
		PasswordColumn:     password,
		FullNameColumn:     name,
	}
}

func TestAuthenticate(t *testing.T) {
	m := newManager(
		user("Ana@Example.com ", "1234", "Ana López"),
		user("luis@example.com", "secreto", "Luis Pérez"),
		user("ana@example.com", "otra", "Ana Segunda"),
	)

	tests := []struct {
		name     string
		email    string
		password string
		wantName string
		wantErr  error
	}{
		{"Exact match", "luis@example.com", "secreto", "Luis Pérez", nil},
		{"Case and space insensitive email", "  ANA@example.COM ", "1234", "Ana López", nil},
		{"Second row with same email", "ana@example.com", "otra", "Ana Segunda", nil},
		{"Wrong password", "luis@example.com", "Secreto", "", ErrInvalidCredentials},
		{"Password with trailing space", "luis@example.com", "secreto ", "", ErrInvalidCredentials},
		{"Unknown email", "nadie@example.com", "1234", "", ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := m.Authenticate(context.Background(), tt.email, tt.password)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				if u != nil {
					t.Errorf("Expected no user, got %+v", u)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if u.FullName != tt.wantName {
				t.Errorf("Expected name '%s', got '%s'", tt.wantName, u.FullName)
			}
		})
	}
}

func TestAuthenticateReturnsRosterEmail(t *testing.T) {
	m := newManager(user("Ana@Example.com", "1234", "Ana"))

	u, err := m.Authenticate(context.Background(), "ana@example.com", "1234")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if u.Email != "Ana@Example.com" {
		t.Errorf("Expected roster email 'Ana@Example.com', got '%s'", u.Email)
	}
	if u.Password != "1234" {
		t.Errorf("Expected password '1234', got '%s'", u.Password)
	}
}

func TestAuthenticateEmptyRoster(t *testing.T) {
	m := newManager()

	if _, err := m.Authenticate(context.Background(), "a@b", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateFetchFailure(t *testing.T) {
	boom := errors.New("no network")
	m := NewManager(cache.New("usuarios", staticSource{err: boom}, 0))

	u, err := m.Authenticate(context.Background(), "a@b", "x")
	if u != nil {
		t.Errorf("Expected no user, got %+v", u)
	}
	if !errors.Is(err, boom) {
		t.Errorf("Expected wrapped fetch error, got %v", err)
	}
	if m.TotalUsers(context.Background()) != 0 {
		t.Error("Expected zero users after a failed fetch")
	}
}

func TestGetUserByEmail(t *testing.T) {
	m := newManager(user("ana@example.com", "1234", "Ana"))

	u, err := m.GetUserByEmail(context.Background(), " ANA@example.com")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if u.FullName != "Ana" {
		t.Errorf("Expected 'Ana', got '%s'", u.FullName)
	}

	if _, err := m.GetUserByEmail(context.Background(), "x@y"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}

	if !m.UserExists(context.Background(), "ana@example.com") {
		t.Error("Expected user to exist")
	}
	if m.UserExists(context.Background(), "x@y") {
		t.Error("Expected user not to exist")
	}
}

func TestTotalUsersAndRefresh(t *testing.T) {
	m := newManager(user("a@b", "1", "A"), user("c@d", "2", "C"))

	if got := m.TotalUsers(context.Background()); got != 2 {
		t.Errorf("Expected 2 users, got %d", got)
	}
	if err := m.Refresh(context.Background()); err != nil {
		t.Errorf("Unexpected refresh error: %v", err)
	}
}
