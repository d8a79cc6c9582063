package ingestion

import (
	"context"
	"fmt"
	"log"

	"github.com/xuri/excelize/v2"

	"github.com/fmuoria/vocational-dashboard/internal/models"
)

// WorkbookSource reads a worksheet from a local .xlsx file
type WorkbookSource struct {
	path  string
	sheet string
	table Table
}

// NewWorkbookSource creates a new workbook source. An empty sheet selects
// the first worksheet.
func NewWorkbookSource(path, sheet string, table Table) *WorkbookSource {
	return &WorkbookSource{
		path:  path,
		sheet: sheet,
		table: table,
	}
}

// Fetch opens the workbook and materializes every row of the worksheet
func (ws *WorkbookSource) Fetch(ctx context.Context) (*models.RowSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(ws.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", ws.path, err)
	}
	defer f.Close()

	sheet := ws.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
		if sheet == "" {
			return nil, fmt.Errorf("workbook %s has no worksheets", ws.path)
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", sheet, err)
	}

	rs, err := buildRowSet(ws.path+"/"+sheet, rows, ws.table)
	if err != nil {
		return nil, err
	}

	log.Printf("Loaded %d %s rows from %s", rs.Len(), ws.table.Name, ws.path)
	return rs, nil
}
