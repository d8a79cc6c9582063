package ingestion

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/fmuoria/vocational-dashboard/internal/models"
)

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// SheetsTarget identifies a worksheet in Google Sheets. ID wins over Name;
// an empty Sheet selects the first worksheet.
type SheetsTarget struct {
	SpreadsheetID   string
	SpreadsheetName string
	Sheet           string
}

func (t SheetsTarget) String() string {
	label := t.SpreadsheetID
	if label == "" {
		label = t.SpreadsheetName
	}
	if t.Sheet != "" {
		return label + "/" + t.Sheet
	}
	return label
}

// SheetsSource reads a worksheet through the Sheets and Drive APIs
type SheetsSource struct {
	target    SheetsTarget
	table     Table
	authorize func(ctx context.Context) (*http.Client, error)
	options   []option.ClientOption
}

// NewSheetsSource creates a source that authorizes every fetch with the
// resolver's service account
func NewSheetsSource(resolver *CredentialResolver, target SheetsTarget, table Table, opts ...option.ClientOption) *SheetsSource {
	return &SheetsSource{
		target: target,
		table:  table,
		authorize: func(ctx context.Context) (*http.Client, error) {
			creds, err := resolver.Resolve()
			if err != nil {
				return nil, err
			}
			log.Printf("Authorizing %s as %s (%s, %d scopes)", target, creds.Email(), creds.Source, len(creds.Scopes))
			return creds.Client(ctx), nil
		},
		options: opts,
	}
}

// Fetch authenticates, opens the spreadsheet, reads the worksheet and
// materializes every row. Any failing step aborts the whole fetch.
func (s *SheetsSource) Fetch(ctx context.Context) (*models.RowSet, error) {
	log.Printf("Loading %s from Google Sheets (%s)", s.table.Name, s.target)

	client, err := s.authorize(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to authorize: %w", err)
	}
	opts := append([]option.ClientOption{option.WithHTTPClient(client)}, s.options...)

	id := s.target.SpreadsheetID
	if id == "" {
		id, err = s.lookupByName(ctx, opts)
		if err != nil {
			return nil, err
		}
	}

	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets client: %w", err)
	}

	sheet := s.target.Sheet
	if sheet == "" {
		sheet, err = firstSheetTitle(ctx, srv, id)
		if err != nil {
			return nil, err
		}
	}

	resp, err := srv.Spreadsheets.Values.Get(id, quoteSheetName(sheet)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to read worksheet %q: %w", sheet, err)
	}

	rs, err := buildRowSet(s.target.String(), stringValues(resp.Values), s.table)
	if err != nil {
		return nil, err
	}

	log.Printf("Loaded %d %s rows from Google Sheets", rs.Len(), s.table.Name)
	return rs, nil
}

// lookupByName resolves a spreadsheet title to its id through Drive
func (s *SheetsSource) lookupByName(ctx context.Context, opts []option.ClientOption) (string, error) {
	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("unable to create Drive client: %w", err)
	}

	r, err := srv.Files.List().
		Q(spreadsheetQuery(s.target.SpreadsheetName)).
		Fields("files(id, name)").
		PageSize(1).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("unable to search spreadsheet %q: %w", s.target.SpreadsheetName, err)
	}

	if len(r.Files) == 0 {
		return "", fmt.Errorf("spreadsheet not found: %s", s.target.SpreadsheetName)
	}

	return r.Files[0].Id, nil
}

func firstSheetTitle(ctx context.Context, srv *sheets.Service, id string) (string, error) {
	ss, err := srv.Spreadsheets.Get(id).Fields("sheets(properties(title))").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to open spreadsheet %s: %w", id, err)
	}
	if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
		return "", fmt.Errorf("spreadsheet %s has no worksheets", id)
	}
	return ss.Sheets[0].Properties.Title, nil
}

// spreadsheetQuery builds a Drive search for a spreadsheet by exact title
func spreadsheetQuery(name string) string {
	escaped := strings.ReplaceAll(name, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, "'", `\'`)
	return fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escaped, spreadsheetMimeType)
}

// quoteSheetName turns a worksheet title into an A1 range covering the sheet
func quoteSheetName(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func stringValues(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			if v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		out[i] = cells
	}
	return out
}
