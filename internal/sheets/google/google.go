package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"finbot/internal/cache"
	"finbot/internal/core"
	ports "finbot/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

var (
	budgetHeader   = []string{"Categoria", "Monto"}
	categoryHeader = []string{"Categoria"}
)

// Ensure interface conformance
var _ ports.Store = (*Client)(nil)

// Config selects the spreadsheet, its worksheets and the credentials.
type Config struct {
	SpreadsheetID   string
	RecordsSheet    string
	BudgetsSheet    string
	CategoriesSheet string
	// CredentialsJSON takes precedence over CredentialsFile.
	CredentialsJSON string
	CredentialsFile string
	// CacheTTL bounds how long worksheet reads are reused. Zero disables caching.
	CacheTTL time.Duration
}

type Client struct {
	api             sheetAPI
	recordsSheet    string
	budgetsSheet    string
	categoriesSheet string

	mu    sync.Mutex
	known map[string]bool
	rows  *cache.LRUCache[[][]string]
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(&serviceAPI{svc: svc, spreadsheetID: cfg.SpreadsheetID}, cfg), nil
}

func newClient(api sheetAPI, cfg Config) *Client {
	c := &Client{
		api:             api,
		recordsSheet:    orDefault(cfg.RecordsSheet, "Gastos"),
		budgetsSheet:    orDefault(cfg.BudgetsSheet, "Presupuestos"),
		categoriesSheet: orDefault(cfg.CategoriesSheet, "Categorias"),
	}
	if cfg.CacheTTL > 0 {
		c.rows = cache.NewLRUCache[[][]string](8, cfg.CacheTTL)
	}
	return c
}

// Cache exposes the worksheet cache so it can be registered for cleanup.
// It is nil when caching is disabled.
func (c *Client) Cache() *cache.LRUCache[[][]string] {
	return c.rows
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(cfg.CredentialsFile)

	// Also check the standard Google Cloud environment variable
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created successfully")
	return service, nil
}

// AppendRecord writes one row to the records sheet, creating the sheet with
// its header row first if needed.
func (c *Client) AppendRecord(ctx context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if err := c.ensureSheet(ctx, c.recordsSheet, core.RecordHeader); err != nil {
		return "", err
	}

	row := []any{t.Date.String(), t.Amount.Float(), t.Category, t.Description, t.Who, string(t.Type)}
	ref, err := c.api.Append(ctx, a1(c.recordsSheet, "A:F"), [][]any{row})
	c.invalidate(c.recordsSheet)
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.recordsSheet, err)
	}
	return ref, nil
}

// ListRecords reads the whole records sheet and filters it in memory. Rows
// with an unparsable amount are skipped.
func (c *Client) ListRecords(ctx context.Context, f core.RecordFilter) ([]core.Transaction, error) {
	rows, err := c.readSheet(ctx, c.recordsSheet, "A:F")
	if err != nil {
		return nil, err
	}
	var out []core.Transaction
	for i, row := range rows {
		if i == 0 && isHeader(row, core.RecordHeader) {
			continue
		}
		t, ok := core.TransactionFromRow(row)
		if !ok {
			continue
		}
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (c *Client) Budgets(ctx context.Context) (map[string]core.Money, error) {
	rows, err := c.readSheet(ctx, c.budgetsSheet, "A:B")
	if err != nil {
		return nil, err
	}
	out := map[string]core.Money{}
	for i, row := range rows {
		if i == 0 && isHeader(row, budgetHeader) {
			continue
		}
		if len(row) < 2 {
			continue
		}
		key := core.CategoryKey(row[0])
		m, ok := core.ParseStoredAmount(row[1])
		if key == "" || !ok {
			continue
		}
		out[key] = m
	}
	return out, nil
}

// SetBudget updates the amount cell of the matching row or appends a new row.
// The sheet is re-read without the cache so the match sees the latest rows.
func (c *Client) SetBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if err := c.ensureSheet(ctx, c.budgetsSheet, budgetHeader); err != nil {
		return err
	}
	c.invalidate(c.budgetsSheet)
	rows, err := c.readSheet(ctx, c.budgetsSheet, "A:B")
	if err != nil {
		return err
	}
	defer c.invalidate(c.budgetsSheet)

	key := core.CategoryKey(b.Category)
	for i, row := range rows {
		if i == 0 && isHeader(row, budgetHeader) {
			continue
		}
		if len(row) > 0 && core.CategoryKey(row[0]) == key {
			rng := a1(c.budgetsSheet, fmt.Sprintf("B%d", i+1))
			if err := c.api.Update(ctx, rng, [][]any{{b.Max.Float()}}); err != nil {
				return fmt.Errorf("update budget %s: %w", rng, err)
			}
			return nil
		}
	}

	row := []any{core.Title(b.Category), b.Max.Float()}
	if _, err := c.api.Append(ctx, a1(c.budgetsSheet, "A:B"), [][]any{row}); err != nil {
		return fmt.Errorf("append budget: %w", err)
	}
	return nil
}

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	rows, err := c.readSheet(ctx, c.categoriesSheet, "A:A")
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var out []string
	for i, row := range rows {
		if i == 0 && isHeader(row, categoryHeader) {
			continue
		}
		if len(row) == 0 {
			continue
		}
		v := row[0]
		k := core.CategoryKey(v)
		if k == "" || strings.HasPrefix(v, "#") {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

func (c *Client) AddCategory(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, core.ErrEmptyCategory
	}
	if err := c.ensureSheet(ctx, c.categoriesSheet, categoryHeader); err != nil {
		return false, err
	}
	c.invalidate(c.categoriesSheet)
	existing, err := c.Categories(ctx)
	if err != nil {
		return false, err
	}
	if core.ContainsCategory(existing, name) {
		return false, nil
	}
	_, err = c.api.Append(ctx, a1(c.categoriesSheet, "A:A"), [][]any{{core.Title(name)}})
	c.invalidate(c.categoriesSheet)
	if err != nil {
		return false, fmt.Errorf("append category: %w", err)
	}
	return true, nil
}

// readSheet returns the rows of title as trimmed strings. A worksheet that
// does not exist yet reads as empty.
func (c *Client) readSheet(ctx context.Context, title, cols string) ([][]string, error) {
	if c.rows != nil {
		if rows, ok := c.rows.Get(title); ok {
			return rows, nil
		}
	}
	exists, err := c.hasSheet(ctx, title)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	rng := a1(title, cols)
	values, err := c.api.Get(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	rows := make([][]string, 0, len(values))
	for _, v := range values {
		rows = append(rows, toStrings(v))
	}
	if c.rows != nil {
		c.rows.Set(title, rows)
	}
	return rows, nil
}

func (c *Client) invalidate(title string) {
	if c.rows != nil {
		c.rows.Delete(title)
	}
}

func (c *Client) hasSheet(ctx context.Context, title string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.known == nil {
		titles, err := c.api.SheetTitles(ctx)
		if err != nil {
			return false, fmt.Errorf("list sheets: %w", err)
		}
		c.known = make(map[string]bool, len(titles))
		for _, t := range titles {
			c.known[t] = true
		}
	}
	return c.known[title], nil
}

// ensureSheet creates title with header as its first row if it is missing.
func (c *Client) ensureSheet(ctx context.Context, title string, header []string) error {
	exists, err := c.hasSheet(ctx, title)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := c.api.AddSheet(ctx, title); err != nil {
		return fmt.Errorf("create sheet %s: %w", title, err)
	}
	row := make([]any, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := c.api.Update(ctx, a1(title, "A1"), [][]any{row}); err != nil {
		return fmt.Errorf("write header to %s: %w", title, err)
	}

	c.mu.Lock()
	c.known[title] = true
	c.mu.Unlock()
	slog.InfoContext(ctx, "Sheet not found, created with header", "sheet", title)
	return nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
