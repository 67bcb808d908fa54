package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"finbot/internal/core"
	"finbot/internal/log"
)

// Budgets sets and reports monthly category budgets.
type Budgets struct {
	Deps
}

func NewBudgets(d Deps) *Budgets {
	return &Budgets{Deps: d}
}

// Set upserts b and replies with the outcome. It reports whether the budget
// was saved.
func (s *Budgets) Set(ctx context.Context, chatID int64, b core.Budget) bool {
	b.Category = core.Title(b.Category)
	slog.InfoContext(ctx, "Setting budget",
		log.FieldOperation, log.OpSetBudget,
		log.FieldCategory, b.Category,
		log.FieldAmountCents, b.Max.Cents)

	if err := s.Store.SetBudget(ctx, b); err != nil {
		slog.ErrorContext(ctx, "Failed to save budget", log.FieldCategory, b.Category, log.FieldError, err)
		s.send(ctx, chatID, "❌ Hubo un error al guardar tu presupuesto. Inténtalo de nuevo.")
		return false
	}
	s.send(ctx, chatID, fmt.Sprintf("✅ Presupuesto actualizado!\nCategoría: %s\nMonto Máximo: %s", b.Category, s.amount(b.Max)))
	return true
}

// Query replies with the month-to-date status of category's budget.
func (s *Budgets) Query(ctx context.Context, chatID int64, category string) {
	s.send(ctx, chatID, s.status(ctx, category))
}

func (s *Budgets) status(ctx context.Context, category string) string {
	if strings.TrimSpace(category) == "" {
		return "No entendí para qué categoría quieres consultar el presupuesto. Inténtalo de nuevo, por ejemplo: '¿cuánto me queda para alimentos?'"
	}
	cat := core.Title(category)
	missing := fmt.Sprintf("No tienes un presupuesto definido para la categoría '%s'.", cat)

	budgets, err := s.Store.Budgets(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read budgets", log.FieldError, err)
		return missing
	}
	budget, ok := core.LookupBudget(budgets, category)
	if !ok || budget.Cents <= 0 {
		return missing
	}

	records, err := s.Store.ListRecords(ctx, core.RecordFilter{Type: core.Expense})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read records for budget query", log.FieldError, err)
	}
	spent := core.MonthToDateSpend(records, category, s.now())
	remaining := budget.Sub(spent)

	return fmt.Sprintf("📊 **Estado de tu Presupuesto para '%s'**\n"+
		"-----------------------------------\n"+
		" Límite Mensual: %s\n"+
		" Total Gastado: %s (%.1f%%)\n"+
		"-----------------------------------\n"+
		" **Te quedan: %s**",
		cat, s.amount(budget), s.amount(spent), core.Percent(spent, budget), s.amount(remaining))
}
