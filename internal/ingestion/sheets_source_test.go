package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"google.golang.org/api/option"

	"github.com/fmuoria/vocational-dashboard/internal/models"
)

// fakeGoogle emulates the handful of Sheets and Drive endpoints a fetch uses
type fakeGoogle struct {
	driveCalls atomic.Int32
	values     [][]interface{}
	notFound   bool
}

func (fg *fakeGoogle) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch {
	case strings.HasSuffix(r.URL.Path, "/files"):
		fg.driveCalls.Add(1)
		files := []map[string]string{}
		if !fg.notFound {
			files = append(files, map[string]string{"id": "sheet-123", "name": "Resultados"})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"files": files})
	case strings.Contains(r.URL.Path, "/values/"):
		json.NewEncoder(w).Encode(map[string]interface{}{
			"range":          "Hoja 1!A1:Z100",
			"majorDimension": "ROWS",
			"values":         fg.values,
		})
	case strings.HasPrefix(r.URL.Path, "/v4/spreadsheets/"):
		json.NewEncoder(w).Encode(map[string]interface{}{
			"sheets": []map[string]interface{}{
				{"properties": map[string]interface{}{"title": "Hoja 1"}},
				{"properties": map[string]interface{}{"title": "Hoja 2"}},
			},
		})
	default:
		http.NotFound(w, r)
	}
}

func newTestSheetsSource(srv *httptest.Server, target SheetsTarget, table Table) *SheetsSource {
	return &SheetsSource{
		target: target,
		table:  table,
		authorize: func(ctx context.Context) (*http.Client, error) {
			return srv.Client(), nil
		},
		options: []option.ClientOption{option.WithEndpoint(srv.URL + "/")},
	}
}

func TestSheetsSourceFetchByName(t *testing.T) {
	fg := &fakeGoogle{
		values: [][]interface{}{
			{"Nombre", models.EmailColumn, "Edad"},
			{"Ana", "Ana@Example.com", 17},
		},
	}
	srv := httptest.NewServer(fg)
	defer srv.Close()

	src := newTestSheetsSource(srv, SheetsTarget{SpreadsheetName: "Resultados"}, Results)
	rs, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if fg.driveCalls.Load() != 1 {
		t.Errorf("Expected one Drive lookup, got %d", fg.driveCalls.Load())
	}
	if rs.Len() != 1 {
		t.Fatalf("Expected 1 row, got %d", rs.Len())
	}
	if rs.Rows[0].Get("Edad") != "17" {
		t.Errorf("Expected Edad '17', got '%s'", rs.Rows[0].Get("Edad"))
	}
	if rs.Rows[0].Get(models.EmailNormalizedColumn) != "ana@example.com" {
		t.Errorf("Expected normalized email, got '%s'", rs.Rows[0].Get(models.EmailNormalizedColumn))
	}
}

func TestSheetsSourceFetchByIDSkipsDrive(t *testing.T) {
	fg := &fakeGoogle{
		values: [][]interface{}{
			{models.EmailColumn, "Contraseña", "Nombre completo"},
			{"ana@example.com", "1234", "Ana"},
		},
	}
	srv := httptest.NewServer(fg)
	defer srv.Close()

	src := newTestSheetsSource(srv, SheetsTarget{SpreadsheetID: "abc", Sheet: "Usuarios"}, Users)
	rs, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if fg.driveCalls.Load() != 0 {
		t.Errorf("Expected no Drive lookup, got %d", fg.driveCalls.Load())
	}
	if rs.Len() != 1 {
		t.Errorf("Expected 1 row, got %d", rs.Len())
	}
}

func TestSheetsSourceSpreadsheetNotFound(t *testing.T) {
	srv := httptest.NewServer(&fakeGoogle{notFound: true})
	defer srv.Close()

	src := newTestSheetsSource(srv, SheetsTarget{SpreadsheetName: "Nada"}, Results)
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Error("Expected error when the spreadsheet is not found")
	}
}

func TestSheetsSourceAuthorizeFailure(t *testing.T) {
	src := &SheetsSource{
		target: SheetsTarget{SpreadsheetID: "abc"},
		table:  Results,
		authorize: func(ctx context.Context) (*http.Client, error) {
			return nil, errors.New("bad key")
		},
	}
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Error("Expected authorization error")
	}
}

func TestSheetsSourceMissingColumns(t *testing.T) {
	fg := &fakeGoogle{values: [][]interface{}{{models.EmailColumn}, {"a@b"}}}
	srv := httptest.NewServer(fg)
	defer srv.Close()

	src := newTestSheetsSource(srv, SheetsTarget{SpreadsheetID: "abc", Sheet: "Usuarios"}, Users)
	if _, err := src.Fetch(context.Background()); !errors.Is(err, ErrMissingColumns) {
		t.Errorf("Expected ErrMissingColumns, got %v", err)
	}
}

func TestSheetsTargetString(t *testing.T) {
	if got := (SheetsTarget{SpreadsheetID: "id", Sheet: "Usuarios"}).String(); got != "id/Usuarios" {
		t.Errorf("Expected 'id/Usuarios', got '%s'", got)
	}
	if got := (SheetsTarget{SpreadsheetName: "Resultados"}).String(); got != "Resultados" {
		t.Errorf("Expected 'Resultados', got '%s'", got)
	}
}
