package results

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fmuoria/vocational-dashboard/internal/cache"
	"github.com/fmuoria/vocational-dashboard/internal/models"
)

// Placeholders shown when a field has no usable content
const (
	NoInformation = "Sin información disponible"
	NoCareers     = "No se especificaron carreras"
)

// Bullet is the marker an already formatted description item starts with
const Bullet = "•"

// Results worksheet columns
const (
	ColumnFecha         = "Fecha"
	ColumnNombre        = "Nombre"
	ColumnEdad          = "Edad"
	ColumnGenero        = "Genero"
	ColumnEscolaridad   = "Escolaridad"
	ColumnAreas         = "Areas"
	ColumnAptitudes     = "Descripción_Aptitudes_intereses"
	ColumnInteligencias = "Descripción_Inteligencias_Multiples"
	ColumnKuder         = "Descripción_Test_de_Kuder"
)

// CareerColumns hold the recommended careers, in display order
var CareerColumns = []string{"A1", "A2", "A3", "A4"}

// ImportantColumns are the columns the dashboard reads
var ImportantColumns = []string{
	ColumnNombre,
	models.EmailColumn,
	ColumnEdad,
	ColumnEscolaridad,
	ColumnAreas,
	ColumnAptitudes,
	ColumnInteligencias,
	ColumnKuder,
	"A1", "A2", "A3", "A4",
}

// ErrNotFound is returned when no results row matches an email
var ErrNotFound = errors.New("no results for email")

// Service looks up and reshapes rows of the results worksheet
type Service struct {
	results *cache.Cache
}

// NewService creates a new results service over the results cache
func NewService(results *cache.Cache) *Service {
	return &Service{
		results: results,
	}
}

// GetFullResults returns the display record for the first row matching email
func (s *Service) GetFullResults(ctx context.Context, email string) (*models.ResultRecord, error) {
	rs, err := s.results.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading results: %w", err)
	}

	row, ok := rs.FindByEmail(email)
	if !ok {
		log.Printf("No results found for %s", email)
		return nil, ErrNotFound
	}

	record := BuildRecord(row)
	return &record, nil
}

// BuildRecord reshapes one results row into its display record
func BuildRecord(row models.Row) models.ResultRecord {
	careers := make([]string, len(CareerColumns))
	for i, col := range CareerColumns {
		careers[i] = row.Get(col)
	}

	return models.ResultRecord{
		Fecha:         row.Get(ColumnFecha),
		Nombre:        row.Get(ColumnNombre),
		Email:         row.Get(models.EmailColumn),
		Edad:          row.Get(ColumnEdad),
		Genero:        row.Get(ColumnGenero),
		Escolaridad:   row.Get(ColumnEscolaridad),
		Areas:         row.Get(ColumnAreas),
		Aptitudes:     SplitDescription(row.Get(ColumnAptitudes)),
		Inteligencias: SplitDescription(row.Get(ColumnInteligencias)),
		Kuder:         SplitDescription(row.Get(ColumnKuder)),
		Carreras:      FormatCareers(careers...),
	}
}

// SplitDescription explodes a free-text description into display items.
//
// Text with line breaks is split on them, otherwise text with periods is
// split into sentences. Items not starting with a bullet get a single
// leading space. Text with neither separator is returned as one trimmed item.
func SplitDescription(text string) []string {
	text = strings.TrimSpace(sanitizeUTF8(text))
	if text == "" {
		return []string{NoInformation}
	}

	var parts []string
	switch {
	case strings.Contains(text, "\n"):
		parts = strings.Split(text, "\n")
	case strings.Contains(text, "."):
		parts = strings.Split(text, ".")
	default:
		return []string{text}
	}

	items := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		if !strings.HasPrefix(item, Bullet) {
			item = " " + item
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return []string{NoInformation}
	}
	return items
}

// FormatCareers merges the career columns into one list, one career per
// non-blank line, keeping column order.
func FormatCareers(columns ...string) []string {
	var careers []string
	for _, col := range columns {
		if strings.TrimSpace(col) == "" {
			continue
		}
		for _, line := range strings.Split(col, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				careers = append(careers, line)
			}
		}
	}

	if len(careers) == 0 {
		return []string{NoCareers}
	}
	return careers
}

// TotalRecords returns the number of results rows
func (s *Service) TotalRecords(ctx context.Context) int {
	return s.results.Count(ctx)
}

// LastRefresh returns when the results were last fetched
func (s *Service) LastRefresh() (time.Time, bool) {
	return s.results.LastRefresh()
}

// Columns lists the header row of the results worksheet
func (s *Service) Columns(ctx context.Context) []string {
	return s.results.Columns(ctx)
}

// Refresh reloads the results worksheet
func (s *Service) Refresh(ctx context.Context) error {
	return s.results.Refresh(ctx)
}

// Diagnostic summarizes the state of the results worksheet
type Diagnostic struct {
	Worksheet   string
	Connected   bool
	Records     int
	Columns     int
	ColumnNames []string
	LastRefresh time.Time
	Present     map[string]bool
	Err         error
}

// Diagnose loads the results and checks the columns the dashboard reads
func (s *Service) Diagnose(ctx context.Context) Diagnostic {
	rs, err := s.results.Snapshot(ctx)
	if err != nil {
		return Diagnostic{Worksheet: s.results.Name(), Err: err}
	}

	d := Diagnostic{
		Worksheet:   s.results.Name(),
		Connected:   true,
		Records:     rs.Len(),
		Columns:     len(rs.Columns),
		ColumnNames: s.Columns(ctx),
		Present:     make(map[string]bool, len(ImportantColumns)),
	}
	d.LastRefresh, _ = s.results.LastRefresh()
	for _, col := range ImportantColumns {
		d.Present[col] = rs.HasColumn(col)
	}
	return d
}

// sanitizeUTF8 replaces invalid byte sequences so templates and workbooks
// never receive broken text
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "�")
}
