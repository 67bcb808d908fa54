package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"finbot/internal/core"
	"finbot/internal/log"
	"finbot/internal/sheets"
)

// Categories appends user-defined categories.
type Categories struct {
	Deps
}

func NewCategories(d Deps) *Categories {
	return &Categories{Deps: d}
}

// Add stores each name, replies with which were added and which already
// existed, and returns the reply.
func (s *Categories) Add(ctx context.Context, chatID int64, names []string) string {
	var added, existing []string
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		ok, err := s.Store.AddCategory(ctx, name)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to add category",
				log.FieldOperation, log.OpAddCat,
				log.FieldCategory, name,
				log.FieldError, err)
			continue
		}
		if ok {
			added = append(added, core.Title(name))
		} else {
			existing = append(existing, core.Title(name))
		}
	}

	var parts []string
	if len(added) > 0 {
		parts = append(parts, fmt.Sprintf("✅ Categorías agregadas: %s.", strings.Join(added, ", ")))
	}
	if len(existing) > 0 {
		parts = append(parts, fmt.Sprintf("⚠️ Estas categorías ya existían: %s.", strings.Join(existing, ", ")))
	}
	msg := strings.Join(parts, "\n")
	if msg == "" {
		msg = "No pude identificar ninguna categoría nueva para agregar."
	}

	slog.InfoContext(ctx, "Categories processed", log.FieldAdded, len(added), log.FieldExisting, len(existing))
	s.send(ctx, chatID, msg)
	return msg
}

// ValidCategories returns the backend categories, falling back to the
// default list when the backend has none or cannot be read.
func ValidCategories(ctx context.Context, store sheets.CategoryStore) []string {
	cats, err := store.Categories(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to load categories, using defaults", log.FieldError, err)
		return core.DefaultCategories
	}
	if len(cats) == 0 {
		return core.DefaultCategories
	}
	return cats
}
