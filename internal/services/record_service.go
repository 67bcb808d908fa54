package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"finbot/internal/core"
	"finbot/internal/log"
	"finbot/internal/sheets"
	"finbot/internal/storage"
)

// Publisher announces that a stored record needs syncing.
type Publisher interface {
	PublishRecordSync(ctx context.Context, id, version int64) error
}

var _ sheets.Store = (*RecordService)(nil)

// RecordService stores records in SQLite and publishes a sync message for
// each new one. Reads go straight to SQLite.
type RecordService struct {
	*storage.SQLiteRepository
	publisher Publisher
}

// NewRecordService wraps repo. A nil publisher disables sync messages; the
// worker's periodic sweep still picks the records up.
func NewRecordService(repo *storage.SQLiteRepository, publisher Publisher) *RecordService {
	return &RecordService{
		SQLiteRepository: repo,
		publisher:        publisher,
	}
}

// AppendRecord saves t locally and publishes a sync message. A failed
// publish does not fail the write.
func (s *RecordService) AppendRecord(ctx context.Context, t core.Transaction) (string, error) {
	// Save to SQLite first (fast, reliable)
	id, err := s.CreateRecord(ctx, t)
	if err != nil {
		return "", fmt.Errorf("save record: %w", err)
	}

	// Version 1 for a new record.
	if err := s.publishSyncMessage(ctx, id, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			log.FieldRecordID, id, log.FieldError, err)
	}

	return strconv.FormatInt(id, 10), nil
}

func (s *RecordService) publishSyncMessage(ctx context.Context, id, version int64) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message", log.FieldRecordID, id)
		return nil
	}
	return s.publisher.PublishRecordSync(ctx, id, version)
}

// Close closes the storage and, when it can be closed, the publisher.
func (s *RecordService) Close() error {
	var errs []error

	if s.SQLiteRepository != nil {
		if err := s.SQLiteRepository.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if c, ok := s.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close record service: %v", errs)
	}
	return nil
}
