package worker

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"finbot/internal/amqp"
	"finbot/internal/core"
	"finbot/internal/sheets/memory"
	"finbot/internal/storage"
)

type flakySheets struct {
	*memory.Store
	fail bool
}

func (f *flakySheets) AppendRecord(ctx context.Context, t core.Transaction) (string, error) {
	if f.fail {
		return "", errors.New("quota exceeded")
	}
	return f.Store.AppendRecord(ctx, t)
}

func setup(t *testing.T) (*storage.SQLiteRepository, *flakySheets) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "w.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, &flakySheets{Store: memory.New(nil)}
}

func record(cents int64) core.Transaction {
	return core.Transaction{
		Date:        core.NewDate(2024, 3, 15),
		Who:         "ana",
		ChatID:      1,
		Amount:      core.Money{Cents: cents},
		Description: "cafe",
		Category:    "salidas",
		Type:        core.Expense,
	}
}

func remoteRows(t *testing.T, s *flakySheets) []core.Transaction {
	t.Helper()
	rows, err := s.ListRecords(context.Background(), core.RecordFilter{})
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestHandleSyncMessage(t *testing.T) {
	repo, remote := setup(t)
	ctx := context.Background()
	w := NewSyncWorker(repo, remote, nil, 10)

	id, _ := repo.CreateRecord(ctx, record(2500))

	if err := w.HandleSyncMessage(ctx, amqp.NewRecordSyncMessage(id, 1)); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}
	// Redelivery must not duplicate the row.
	if err := w.HandleSyncMessage(ctx, amqp.NewRecordSyncMessage(id, 1)); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if rows := remoteRows(t, remote); len(rows) != 1 || rows[0].Amount.Cents != 2500 {
		t.Fatalf("remote rows = %+v", rows)
	}

	rec, _ := repo.GetRecord(ctx, id)
	if rec.SyncStatus != storage.SyncSynced {
		t.Fatalf("status = %q", rec.SyncStatus)
	}

	if err := w.HandleSyncMessage(ctx, amqp.NewRecordSyncMessage(999, 1)); err != nil {
		t.Fatalf("unknown record should be dropped, got %v", err)
	}
}

func TestHandleSyncMessageFailureMarksError(t *testing.T) {
	repo, remote := setup(t)
	ctx := context.Background()
	remote.fail = true
	w := NewSyncWorker(repo, remote, nil, 10)

	id, _ := repo.CreateRecord(ctx, record(100))
	if err := w.HandleSyncMessage(ctx, amqp.NewRecordSyncMessage(id, 1)); err == nil {
		t.Fatal("expected error so the message is requeued")
	}
	rec, _ := repo.GetRecord(ctx, id)
	if rec.SyncStatus != storage.SyncError {
		t.Fatalf("status = %q", rec.SyncStatus)
	}

	// The sweep retries records in error.
	remote.fail = false
	if err := w.ProcessPendingRecords(ctx); err != nil {
		t.Fatalf("ProcessPendingRecords: %v", err)
	}
	if rows := remoteRows(t, remote); len(rows) != 1 {
		t.Fatalf("remote rows = %d", len(rows))
	}
}

// racingSource lets the consumer sync a record between the sweep listing
// it and appending it.
type racingSource struct {
	*storage.SQLiteRepository
	afterList func()
}

func (r *racingSource) PendingSync(ctx context.Context, limit int) ([]storage.PendingSyncRecord, error) {
	pending, err := r.SQLiteRepository.PendingSync(ctx, limit)
	if err == nil && r.afterList != nil {
		r.afterList()
	}
	return pending, err
}

func TestSweepSkipsRecordSyncedByConsumer(t *testing.T) {
	repo, remote := setup(t)
	ctx := context.Background()
	id, _ := repo.CreateRecord(ctx, record(900))

	src := &racingSource{SQLiteRepository: repo}
	w := NewSyncWorker(src, remote, nil, 10)
	src.afterList = func() {
		if err := w.HandleSyncMessage(ctx, amqp.NewRecordSyncMessage(id, 1)); err != nil {
			t.Errorf("HandleSyncMessage: %v", err)
		}
	}

	if err := w.ProcessPendingRecords(ctx); err != nil {
		t.Fatalf("ProcessPendingRecords: %v", err)
	}
	if rows := remoteRows(t, remote); len(rows) != 1 {
		t.Fatalf("remote rows = %d, want 1", len(rows))
	}
}

func TestConcurrentSyncPathsAppendOnce(t *testing.T) {
	repo, remote := setup(t)
	ctx := context.Background()
	w := NewSyncWorker(repo, remote, nil, 10)

	var ids []int64
	for i := 1; i <= 5; i++ {
		id, _ := repo.CreateRecord(ctx, record(int64(i*100)))
		ids = append(ids, id)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for _, id := range ids {
			if err := w.HandleSyncMessage(ctx, amqp.NewRecordSyncMessage(id, 1)); err != nil {
				t.Errorf("HandleSyncMessage(%d): %v", id, err)
			}
		}
	}()
	go func() {
		defer wg.Done()
		if err := w.ProcessPendingRecords(ctx); err != nil {
			t.Errorf("ProcessPendingRecords: %v", err)
		}
	}()
	wg.Wait()

	if rows := remoteRows(t, remote); len(rows) != len(ids) {
		t.Fatalf("remote rows = %d, want %d", len(rows), len(ids))
	}
}

func TestStartupSyncCheckRespectsBatch(t *testing.T) {
	repo, remote := setup(t)
	ctx := context.Background()
	for i := 1; i <= 7; i++ {
		repo.CreateRecord(ctx, record(int64(i*100)))
	}

	w := NewSyncWorker(repo, remote, nil, 1)
	if err := w.StartupSyncCheck(ctx); err != nil {
		t.Fatalf("StartupSyncCheck: %v", err)
	}
	if rows := remoteRows(t, remote); len(rows) != 5 {
		t.Fatalf("startup synced %d, want 5", len(rows))
	}
	if err := w.ProcessPendingRecords(ctx); err != nil {
		t.Fatal(err)
	}
	if rows := remoteRows(t, remote); len(rows) != 6 {
		t.Fatalf("after sweep %d rows, want 6", len(rows))
	}
}

func TestSyncCategoriesFromSheets(t *testing.T) {
	repo, _ := setup(t)
	ctx := context.Background()
	taxonomy := memory.New([]string{"Alimentos", "Gimnasio", "Viajes"})

	w := NewSyncWorker(repo, nil, taxonomy, 10)
	if err := w.SyncCategoriesFromSheets(ctx); err != nil {
		t.Fatalf("SyncCategoriesFromSheets: %v", err)
	}
	cats, _ := repo.Categories(ctx)
	if !core.ContainsCategory(cats, "gimnasio") || !core.ContainsCategory(cats, "viajes") {
		t.Fatalf("categories = %v", cats)
	}
	if len(cats) != len(core.DefaultCategories)+2 {
		t.Fatalf("got %d categories", len(cats))
	}
}
