package models

import (
	"strings"
	"time"
)

// Column names shared by the user and results worksheets
const (
	EmailColumn           = "Dirección de correo electrónico"
	EmailNormalizedColumn = "email_normalized"
)

// Row maps a column header to its cell value
type Row map[string]string

// Get returns the cell value for a column, or "" when the column is absent
func (r Row) Get(column string) string {
	if r == nil {
		return ""
	}
	return r[column]
}

// RowSet is the full tabular contents of one worksheet
type RowSet struct {
	Source  string    `json:"source"`
	Columns []string  `json:"columns"`
	Rows    []Row     `json:"rows"`
	Loaded  time.Time `json:"loaded"`
}

// Len returns the number of data rows
func (rs *RowSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}

// HasColumn reports whether the header row contains column
func (rs *RowSet) HasColumn(column string) bool {
	if rs == nil {
		return false
	}
	for _, c := range rs.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// MissingColumns returns the required columns not present in the header row
func (rs *RowSet) MissingColumns(required ...string) []string {
	var missing []string
	for _, c := range required {
		if !rs.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// NormalizeEmails adds the email_normalized column to every row when the
// email column is present. Must only be called before the set is published.
func (rs *RowSet) NormalizeEmails(emailColumn string) {
	if !rs.HasColumn(emailColumn) {
		return
	}
	for _, row := range rs.Rows {
		row[EmailNormalizedColumn] = NormalizeEmail(row.Get(emailColumn))
	}
	if !rs.HasColumn(EmailNormalizedColumn) {
		rs.Columns = append(rs.Columns, EmailNormalizedColumn)
	}
}

// FindByEmail returns the first row whose normalized email matches
func (rs *RowSet) FindByEmail(email string) (Row, bool) {
	return rs.Find(func(row Row) bool {
		return row.Get(EmailNormalizedColumn) == NormalizeEmail(email)
	})
}

// Find returns the first row satisfying match
func (rs *RowSet) Find(match func(Row) bool) (Row, bool) {
	if rs == nil {
		return nil, false
	}
	for _, row := range rs.Rows {
		if match(row) {
			return row, true
		}
	}
	return nil, false
}

// NormalizeEmail lowercases and trims an email for lookups
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserRecord is the view of one row of the user worksheet
type UserRecord struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"-"`
}

// ResultRecord is the display view of one row of the results worksheet
type ResultRecord struct {
	Fecha         string   `json:"fecha"`
	Nombre        string   `json:"nombre"`
	Email         string   `json:"email"`
	Edad          string   `json:"edad"`
	Genero        string   `json:"genero"`
	Escolaridad   string   `json:"escolaridad"`
	Areas         string   `json:"areas"`
	Aptitudes     []string `json:"aptitudes"`
	Inteligencias []string `json:"inteligencias"`
	Kuder         []string `json:"kuder"`
	Carreras      []string `json:"carreras"`
}

// Session is the identity carried by an authenticated session cookie
type Session struct {
	UserEmail string `json:"user_email"`
	UserName  string `json:"user_name"`
}

// Authenticated reports whether the session carries an identity
func (s Session) Authenticated() bool {
	return s.UserEmail != ""
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status      string `json:"status"`
	Users       int    `json:"users"`
	Records     int    `json:"records"`
	LastRefresh string `json:"last_refresh,omitempty"`
}
