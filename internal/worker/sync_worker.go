// Package worker pushes records buffered in SQLite to Google Sheets.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"finbot/internal/amqp"
	"finbot/internal/core"
	"finbot/internal/log"
	"finbot/internal/sheets"
	"finbot/internal/storage"
)

// RecordSource is the local side of the sync.
type RecordSource interface {
	GetRecord(ctx context.Context, id int64) (*storage.StoredRecord, error)
	PendingSync(ctx context.Context, limit int) ([]storage.PendingSyncRecord, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
	AddCategory(ctx context.Context, name string) (bool, error)
}

// SyncWorker handles synchronization of records from SQLite to Google Sheets.
// The AMQP consumer and the periodic sweep share one worker; mu keeps them
// from appending the same record twice.
type SyncWorker struct {
	mu        sync.Mutex
	storage   RecordSource
	sheets    sheets.RecordAppender
	taxonomy  sheets.CategoryStore
	batchSize int
}

// NewSyncWorker creates a worker. taxonomy may be nil, which disables the
// category refresh.
func NewSyncWorker(storage RecordSource, sheets sheets.RecordAppender, taxonomy sheets.CategoryStore, batchSize int) *SyncWorker {
	if batchSize < 1 {
		batchSize = 10
	}
	return &SyncWorker{
		storage:   storage,
		sheets:    sheets,
		taxonomy:  taxonomy,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single record sync message from AMQP.
// Unknown records are dropped; already synced or stale messages are skipped
// so a redelivery never writes the same row twice.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.RecordSyncMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rec, err := w.storage.GetRecord(ctx, msg.ID)
	if errors.Is(err, storage.ErrRecordNotFound) {
		slog.WarnContext(ctx, "Sync message for unknown record, dropping", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get record from storage: %w", err)
	}

	if rec.SyncStatus == storage.SyncSynced {
		slog.DebugContext(ctx, "Record already synced, skipping", "id", msg.ID)
		return nil
	}
	if msg.Version < rec.Version {
		slog.InfoContext(ctx, "Stale sync message, skipping",
			"id", msg.ID,
			"message_version", msg.Version,
			"record_version", rec.Version)
		return nil
	}

	if err := w.syncRecordToSheets(ctx, rec.ID, rec.Record); err != nil {
		return fmt.Errorf("sync record to sheets: %w", err)
	}
	return nil
}

// ProcessPendingRecords syncs up to one batch of records that haven't been
// synced yet. It backs up AMQP in case messages are lost.
func (w *SyncWorker) ProcessPendingRecords(ctx context.Context) error {
	synced, failed, err := w.syncPending(ctx, w.batchSize)
	if err != nil {
		return err
	}
	if synced+failed > 0 {
		slog.InfoContext(ctx, "Processed pending records", "synced", synced, "errors", failed)
	}
	return nil
}

// StartupSyncCheck syncs a larger batch of pending records at worker startup.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, failed, err := w.syncPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync check: %w", err)
	}
	if synced+failed == 0 {
		slog.InfoContext(ctx, "No pending records found on startup")
		return nil
	}
	slog.InfoContext(ctx, "Startup sync completed",
		"total", synced+failed,
		"synced", synced,
		"errors", failed)
	return nil
}

func (w *SyncWorker) syncPending(ctx context.Context, limit int) (synced, failed int, err error) {
	pending, err := w.storage.PendingSync(ctx, limit)
	if err != nil {
		return 0, 0, fmt.Errorf("get pending records: %w", err)
	}

	for _, p := range pending {
		if ctx.Err() != nil {
			return synced, failed, ctx.Err()
		}
		done, err := w.syncPendingRecord(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to sync record", "id", p.ID, "error", err)
			failed++
			continue
		}
		if done {
			synced++
		}
	}
	return synced, failed, nil
}

// syncPendingRecord re-reads the record under the lock, so a record the
// consumer synced after PendingSync listed it is skipped.
func (w *SyncWorker) syncPendingRecord(ctx context.Context, id int64) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	rec, err := w.storage.GetRecord(ctx, id)
	if err != nil {
		return false, fmt.Errorf("get record from storage: %w", err)
	}
	if rec.SyncStatus == storage.SyncSynced {
		return false, nil
	}
	if err := w.syncRecordToSheets(ctx, id, rec.Record); err != nil {
		return false, err
	}
	return true, nil
}

// SyncCategoriesFromSheets copies categories added directly in the
// spreadsheet into the local store. Local categories are never removed.
func (w *SyncWorker) SyncCategoriesFromSheets(ctx context.Context) error {
	if w.taxonomy == nil {
		return nil
	}
	cats, err := w.taxonomy.Categories(ctx)
	if err != nil {
		return fmt.Errorf("load categories from Google Sheets: %w", err)
	}

	added := 0
	for _, c := range cats {
		ok, err := w.storage.AddCategory(ctx, c)
		if err != nil {
			if errors.Is(err, core.ErrEmptyCategory) {
				continue
			}
			return fmt.Errorf("cache category %q: %w", c, err)
		}
		if ok {
			added++
		}
	}

	slog.InfoContext(ctx, "Categories synced from Google Sheets",
		"remote", len(cats),
		"added", added)
	return nil
}

// Run sweeps pending records every interval and refreshes categories once
// a day until ctx is cancelled.
func (w *SyncWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	categoryTicker := time.NewTicker(24 * time.Hour)
	defer categoryTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPendingRecords(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic sync failed", "error", err)
			}
		case <-categoryTicker.C:
			if err := w.SyncCategoriesFromSheets(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic category refresh failed", "error", err)
			}
		}
	}
}

func (w *SyncWorker) syncRecordToSheets(ctx context.Context, id int64, t core.Transaction) error {
	ref, err := w.sheets.AppendRecord(ctx, t)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	// The row exists now; a failed status update only means a later resync.
	if err := w.storage.MarkSynced(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", id, "error", err)
	}

	fields := log.NewFields().
		WithOperation(log.OpSync).
		WithTransaction(string(t.Type), t.Category, t.Amount.Cents)
	fields[log.FieldRecordID] = id
	fields[log.FieldSheetsRef] = ref
	slog.InfoContext(ctx, "Successfully synced record", fields.ToSlice()...)
	return nil
}
