package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fmuoria/vocational-dashboard/internal/models"
)

const (
	summarySheet = "Resumen"
	detailSheet  = "Detalle"
)

// Filename returns the download name for a student's workbook
func Filename(record models.ResultRecord) string {
	name := strings.ToLower(strings.TrimSpace(record.Nombre))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_':
			return '_'
		}
		return -1
	}, name)
	if name == "" {
		name = "resultados"
	}
	return fmt.Sprintf("resultados_%s.xlsx", name)
}

// WriteResultWorkbook renders one student's results as an Excel workbook
func WriteResultWorkbook(w io.Writer, record models.ResultRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(detailSheet); err != nil {
		return fmt.Errorf("failed to create detail sheet: %w", err)
	}

	if err := createSummarySheet(f, summarySheet, record); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	if err := createDetailSheet(f, detailSheet, record); err != nil {
		return fmt.Errorf("failed to create detail sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}

// createSummarySheet writes the basic fields as label/value pairs
func createSummarySheet(f *excelize.File, sheetName string, record models.ResultRecord) error {
	f.SetColWidth(sheetName, "A", "A", 22)
	f.SetColWidth(sheetName, "B", "B", 50)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"3D5A96"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	labelStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return err
	}

	row := 1

	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Resultados de Orientación Vocacional")
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), headerStyle)
	f.MergeCell(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row))
	row += 2

	fields := []struct {
		label string
		value string
	}{
		{"Nombre:", record.Nombre},
		{"Correo electrónico:", record.Email},
		{"Fecha:", record.Fecha},
		{"Edad:", record.Edad},
		{"Género:", record.Genero},
		{"Escolaridad:", record.Escolaridad},
		{"Áreas:", record.Areas},
	}
	for _, field := range fields {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), field.label)
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), labelStyle)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), field.value)
		row++
	}
	row++

	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Generado:")
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), labelStyle)
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), time.Now().Format("2006-01-02 15:04:05"))

	return nil
}

// createDetailSheet writes the four lists side by side, one item per row
func createDetailSheet(f *excelize.File, sheetName string, record models.ResultRecord) error {
	f.SetColWidth(sheetName, "A", "D", 45)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"D05A7E"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return err
	}

	cellStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return err
	}

	columns := []struct {
		header string
		items  []string
	}{
		{"Aptitudes e intereses", record.Aptitudes},
		{"Inteligencias múltiples", record.Inteligencias},
		{"Test de Kuder", record.Kuder},
		{"Carreras recomendadas", record.Carreras},
	}

	for col, c := range columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		f.SetCellValue(sheetName, cell, c.header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)

		for i, item := range c.items {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			f.SetCellValue(sheetName, cell, strings.TrimSpace(item))
			f.SetCellStyle(sheetName, cell, cell, cellStyle)
		}
	}

	return nil
}
