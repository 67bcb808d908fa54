package google

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	gsheet "google.golang.org/api/sheets/v4"
)

// sheetAPI is the slice of the Sheets API the client uses.
type sheetAPI interface {
	Get(ctx context.Context, rng string) ([][]any, error)
	Append(ctx context.Context, rng string, rows [][]any) (updatedRange string, err error)
	Update(ctx context.Context, rng string, rows [][]any) error
	SheetTitles(ctx context.Context) ([]string, error)
	AddSheet(ctx context.Context, title string) error
}

type serviceAPI struct {
	svc           *gsheet.Service
	spreadsheetID string
}

func (a *serviceAPI) Get(ctx context.Context, rng string) ([][]any, error) {
	resp, err := a.svc.Spreadsheets.Values.Get(a.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (a *serviceAPI) Append(ctx context.Context, rng string, rows [][]any) (string, error) {
	vr := &gsheet.ValueRange{Values: rows}
	resp, err := a.svc.Spreadsheets.Values.Append(a.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if resp.Updates != nil {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

func (a *serviceAPI) Update(ctx context.Context, rng string, rows [][]any) error {
	vr := &gsheet.ValueRange{Values: rows}
	_, err := a.svc.Spreadsheets.Values.Update(a.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		Context(ctx).Do()
	return err
}

func (a *serviceAPI) SheetTitles(ctx context.Context) ([]string, error) {
	resp, err := a.svc.Spreadsheets.Get(a.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s.Properties != nil {
			titles = append(titles, s.Properties.Title)
		}
	}
	return titles, nil
}

func (a *serviceAPI) AddSheet(ctx context.Context, title string) error {
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: title},
			},
		}},
	}
	_, err := a.svc.Spreadsheets.BatchUpdate(a.spreadsheetID, req).Context(ctx).Do()
	return err
}

// quoteSheet wraps a sheet title for use in A1 notation.
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func a1(title, cells string) string {
	return fmt.Sprintf("%s!%s", quoteSheet(title), cells)
}

// cellString renders an unformatted cell value. Numbers are written without
// exponent so amounts survive the round trip.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = cellString(v)
	}
	return out
}

// isHeader reports whether row starts with the first header cell.
func isHeader(row []string, header []string) bool {
	return len(row) > 0 && len(header) > 0 && strings.EqualFold(row[0], header[0])
}
