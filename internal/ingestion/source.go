package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fmuoria/vocational-dashboard/internal/models"
)

// ErrMissingColumns is returned when a worksheet lacks a required header
var ErrMissingColumns = errors.New("missing required columns")

// RowSource loads a whole worksheet as a row-set
type RowSource interface {
	Fetch(ctx context.Context) (*models.RowSet, error)
}

// Table describes what the load boundary enforces on a fetched worksheet
type Table struct {
	Name            string
	EmailColumn     string
	RequiredColumns []string
}

// Users is the roster worksheet
var Users = Table{
	Name:        "usuarios",
	EmailColumn: models.EmailColumn,
	RequiredColumns: []string{
		models.EmailColumn,
		"Contraseña",
		"Nombre completo",
	},
}

// Results is the vocational test results worksheet
var Results = Table{
	Name:        "resultados",
	EmailColumn: models.EmailColumn,
}

// buildRowSet materializes a header row plus data rows the way a
// get-all-records call does: the first row names the columns, short rows are
// padded with empty cells and cells beyond the header are ignored.
func buildRowSet(source string, values [][]string, table Table) (*models.RowSet, error) {
	rs := &models.RowSet{
		Source: source,
		Loaded: time.Now(),
	}

	if len(values) > 0 {
		seen := make(map[string]bool)
		for _, h := range values[0] {
			if h != "" && seen[h] {
				return nil, fmt.Errorf("duplicate header %q in %s", h, source)
			}
			seen[h] = true
			rs.Columns = append(rs.Columns, h)
		}

		for _, cells := range values[1:] {
			if isBlankRow(cells) {
				continue
			}
			row := make(models.Row, len(rs.Columns))
			for i, col := range rs.Columns {
				if col == "" {
					continue
				}
				if i < len(cells) {
					row[col] = cells[i]
				} else {
					row[col] = ""
				}
			}
			rs.Rows = append(rs.Rows, row)
		}
	}

	if missing := rs.MissingColumns(table.RequiredColumns...); len(missing) > 0 {
		return nil, fmt.Errorf("%s: %w: %s (available: %s)", source, ErrMissingColumns,
			strings.Join(missing, ", "), strings.Join(rs.Columns, ", "))
	}

	if table.EmailColumn != "" {
		rs.NormalizeEmails(table.EmailColumn)
	}

	return rs, nil
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
