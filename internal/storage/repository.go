package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"finbot/internal/core"
	ports "finbot/internal/sheets"

	_ "modernc.org/sqlite"
)

const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

// ErrRecordNotFound is returned when a record id does not exist.
var ErrRecordNotFound = errors.New("record not found")

var _ ports.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db *sql.DB
}

// StoredRecord is a record together with its local bookkeeping columns.
type StoredRecord struct {
	ID         int64
	Version    int64
	Record     core.Transaction
	SyncStatus string
	CreatedAt  time.Time
}

// PendingSyncRecord represents minimal data needed for sync queue messages
type PendingSyncRecord struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateRecord inserts t as pending sync and returns its id.
func (r *SQLiteRepository) CreateRecord(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO records (date, amount_cents, category, description, who, type, chat_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.Date.String(), t.Amount.Cents, t.Category, t.Description, t.Who, string(t.Type), t.ChatID)
	if err != nil {
		return 0, fmt.Errorf("create record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read record id: %w", err)
	}

	slog.InfoContext(ctx, "Record saved to SQLite",
		"id", id,
		"type", string(t.Type),
		"category", t.Category,
		"amount_cents", t.Amount.Cents)
	return id, nil
}

// AppendRecord implements sheets.RecordAppender
func (r *SQLiteRepository) AppendRecord(ctx context.Context, t core.Transaction) (string, error) {
	id, err := r.CreateRecord(ctx, t)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

// ListRecords implements sheets.RecordLister
func (r *SQLiteRepository) ListRecords(ctx context.Context, f core.RecordFilter) ([]core.Transaction, error) {
	var (
		where []string
		args  []any
	)
	if f.Range != nil {
		where = append(where, "date BETWEEN ? AND ?")
		args = append(args, f.Range.Start.String(), f.Range.End.String())
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}
	q := `SELECT date, amount_cents, category, description, who, type FROM records`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner, extra ...any) (core.Transaction, error) {
	var (
		date, category, description, who, typ string
		cents                                 int64
	)
	dest := append([]any{&date, &cents, &category, &description, &who, &typ}, extra...)
	if err := s.Scan(dest...); err != nil {
		return core.Transaction{}, fmt.Errorf("scan record: %w", err)
	}
	d, _ := core.ParseDate(date)
	return core.Transaction{
		Date:        d,
		Amount:      core.Money{Cents: cents},
		Category:    category,
		Description: description,
		Who:         who,
		Type:        core.TxType(typ),
	}, nil
}

// GetRecord retrieves a single record by ID
func (r *SQLiteRepository) GetRecord(ctx context.Context, id int64) (*StoredRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT date, amount_cents, category, description, who, type,
		        id, version, chat_id, sync_status, CAST(strftime('%s', created_at) AS INTEGER)
		 FROM records WHERE id = ?`, id)

	var (
		rec     StoredRecord
		chatID  int64
		created int64
	)
	t, err := scanTransaction(row, &rec.ID, &rec.Version, &chatID, &rec.SyncStatus, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRecordNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get record by id: %w", err)
	}
	t.ChatID = chatID
	rec.Record = t
	rec.CreatedAt = time.Unix(created, 0).UTC()
	return &rec, nil
}

// PendingSync returns the oldest records not yet synced to Google Sheets,
// including those whose last attempt failed.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]PendingSyncRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, version, CAST(strftime('%s', created_at) AS INTEGER)
		 FROM records WHERE sync_status != ?
		 ORDER BY created_at, id LIMIT ?`, SyncSynced, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync records: %w", err)
	}
	defer rows.Close()

	var out []PendingSyncRecord
	for rows.Next() {
		var p PendingSyncRecord
		var created int64
		if err := rows.Scan(&p.ID, &p.Version, &created); err != nil {
			return nil, fmt.Errorf("scan pending record: %w", err)
		}
		p.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkSynced marks a record as successfully synced
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if err := r.setSyncStatus(ctx, id, SyncSynced); err != nil {
		return fmt.Errorf("mark record synced: %w", err)
	}
	slog.InfoContext(ctx, "Record marked as synced", "id", id)
	return nil
}

// MarkSyncError marks a record as having sync errors
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if err := r.setSyncStatus(ctx, id, SyncError); err != nil {
		return fmt.Errorf("mark record sync error: %w", err)
	}
	slog.WarnContext(ctx, "Record marked with sync error", "id", id)
	return nil
}

func (r *SQLiteRepository) setSyncStatus(ctx context.Context, id int64, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE records
		 SET sync_status = ?, synced_at = CASE WHEN ? = 'synced' THEN CURRENT_TIMESTAMP ELSE synced_at END
		 WHERE id = ?`, status, status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", ErrRecordNotFound, id)
	}
	return nil
}

// Budgets implements sheets.BudgetStore
func (r *SQLiteRepository) Budgets(ctx context.Context) (map[string]core.Money, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT category_key, amount_cents FROM budgets`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	out := map[string]core.Money{}
	for rows.Next() {
		var key string
		var cents int64
		if err := rows.Scan(&key, &cents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out[key] = core.Money{Cents: cents}
	}
	return out, rows.Err()
}

// SetBudget upserts on the case-folded category key.
func (r *SQLiteRepository) SetBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (category_key, category, amount_cents) VALUES (?, ?, ?)
		 ON CONFLICT(category_key) DO UPDATE SET amount_cents = excluded.amount_cents, updated_at = CURRENT_TIMESTAMP`,
		core.CategoryKey(b.Category), core.Title(b.Category), b.Max.Cents)
	if err != nil {
		return fmt.Errorf("set budget: %w", err)
	}
	return nil
}

// Categories implements sheets.CategoryStore
func (r *SQLiteRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM categories ORDER BY position, name_key`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// AddCategory appends name after the existing categories unless its key is taken.
func (r *SQLiteRepository) AddCategory(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, core.ErrEmptyCategory
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO categories (name_key, name, position)
		 VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM categories))`,
		core.CategoryKey(name), core.Title(name))
	if err != nil {
		return false, fmt.Errorf("add category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add category: %w", err)
	}
	return n > 0, nil
}
