package backend

import (
	"context"
	"path/filepath"
	"testing"

	"finbot/internal/config"
	"finbot/internal/core"
	"finbot/internal/services"
)

func TestFromAppConfig(t *testing.T) {
	app := &config.Config{
		DataBackend:         config.BackendSheets,
		GoogleSpreadsheetID: "sheet-1",
		GoogleRecordsSheet:  "Gastos",
		DataDir:             "seed",
	}
	got, err := FromAppConfig(app)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if got.Type != SheetsBackend || got.GoogleSpreadsheetID != "sheet-1" || got.DataDirectory != "seed" {
		t.Fatalf("config = %+v", got)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"sheets without id", Config{Type: SheetsBackend, GoogleServiceAccountJSON: "{}"}, true},
		{"sheets without credentials", Config{Type: SheetsBackend, GoogleSpreadsheetID: "id"}, true},
		{"sheets", Config{Type: SheetsBackend, GoogleSpreadsheetID: "id", GoogleServiceAccountJSON: "{}"}, false},
		{"unknown", Config{Type: "redis"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	res, err := NewFactory(nil, nil).CreateBackend(context.Background(), Config{
		Type:          MemoryBackend,
		DataDirectory: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	cats, err := res.Backend.Categories(context.Background())
	if err != nil || len(cats) != len(core.DefaultCategories) {
		t.Fatalf("categories = %v, %v", cats, err)
	}
	if res.Cleanup != nil {
		t.Fatal("memory backend needs no cleanup")
	}
}

func TestCreateSQLiteBackendWithoutAMQP(t *testing.T) {
	res, err := NewFactory(nil, nil).CreateBackend(context.Background(), Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "finbot.db"),
	})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Cleanup()

	if _, ok := res.Backend.(*services.RecordService); !ok {
		t.Fatalf("backend is %T", res.Backend)
	}
	tx := core.Transaction{
		Date:        core.NewDate(2024, 3, 1),
		Who:         "Ana",
		ChatID:      1,
		Amount:      core.Money{Cents: 1500},
		Description: "cafe",
		Category:    "salidas",
		Type:        core.Expense,
	}
	ref, err := res.Backend.AppendRecord(context.Background(), tx)
	if err != nil || ref != "1" {
		t.Fatalf("AppendRecord = %q, %v", ref, err)
	}
}
