package ingestion

import (
	"errors"
	"testing"

	"github.com/fmuoria/vocational-dashboard/internal/models"
)

func TestBuildRowSet(t *testing.T) {
	values := [][]string{
		{"Nombre", models.EmailColumn, "Edad"},
		{"Ana", "ANA@example.com ", "17"},
		{"Luis", "luis@example.com"},
		{"", "", ""},
		{"Eva", "eva@example.com", "18", "extra"},
	}

	rs, err := buildRowSet("test", values, Results)
	if err != nil {
		t.Fatalf("buildRowSet failed: %v", err)
	}

	if rs.Len() != 3 {
		t.Fatalf("Expected 3 rows (blank row skipped), got %d", rs.Len())
	}
	if rs.Source != "test" {
		t.Errorf("Expected source 'test', got '%s'", rs.Source)
	}
	if rs.Rows[1].Get("Edad") != "" {
		t.Errorf("Expected padded empty Edad, got '%s'", rs.Rows[1].Get("Edad"))
	}
	if len(rs.Rows[2]) != 4 {
		t.Errorf("Expected cells beyond the header to be dropped, got %v", rs.Rows[2])
	}
	if rs.Rows[0].Get(models.EmailNormalizedColumn) != "ana@example.com" {
		t.Errorf("Expected normalized email, got '%s'", rs.Rows[0].Get(models.EmailNormalizedColumn))
	}
	if rs.Loaded.IsZero() {
		t.Error("Expected load time to be set")
	}
}

func TestBuildRowSetEmpty(t *testing.T) {
	rs, err := buildRowSet("empty", nil, Results)
	if err != nil {
		t.Fatalf("Expected no error for empty worksheet, got %v", err)
	}
	if rs.Len() != 0 {
		t.Errorf("Expected 0 rows, got %d", rs.Len())
	}

	if _, err := buildRowSet("empty", nil, Users); !errors.Is(err, ErrMissingColumns) {
		t.Errorf("Expected ErrMissingColumns for empty users sheet, got %v", err)
	}
}

func TestBuildRowSetDuplicateHeader(t *testing.T) {
	values := [][]string{{"A", "B", "A"}, {"1", "2", "3"}}
	if _, err := buildRowSet("dup", values, Results); err == nil {
		t.Error("Expected error for duplicate header")
	}
}

func TestBuildRowSetBlankHeadersIgnored(t *testing.T) {
	values := [][]string{{"A", "", ""}, {"1", "x", "y"}}
	rs, err := buildRowSet("blank", values, Results)
	if err != nil {
		t.Fatalf("Expected blank headers to be allowed, got %v", err)
	}
	if len(rs.Rows[0]) != 1 {
		t.Errorf("Expected only the named column, got %v", rs.Rows[0])
	}
}

func TestSpreadsheetQuery(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "Plain title",
			in:   "Resultados de Orientación vocacional",
			want: "name = 'Resultados de Orientación vocacional' and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false",
		},
		{
			name: "Quote in title",
			in:   "Ana's sheet",
			want: `name = 'Ana\'s sheet' and mimeType = 'application/vnd.google-apps.spreadsheet' and trashed = false`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := spreadsheetQuery(tt.in); got != tt.want {
				t.Errorf("spreadsheetQuery(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestQuoteSheetName(t *testing.T) {
	if got := quoteSheetName("Usuarios"); got != "'Usuarios'" {
		t.Errorf("Expected 'Usuarios' quoted, got %s", got)
	}
	if got := quoteSheetName("Hoja de Ana's"); got != "'Hoja de Ana''s'" {
		t.Errorf("Expected doubled quote, got %s", got)
	}
}

func TestStringValues(t *testing.T) {
	in := [][]interface{}{{"a", 1, nil, 2.5, true}}
	out := stringValues(in)
	want := []string{"a", "1", "", "2.5", "true"}
	for i := range want {
		if out[0][i] != want[i] {
			t.Errorf("cell %d: expected %q, got %q", i, want[i], out[0][i])
		}
	}
}
