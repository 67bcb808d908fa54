package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"finbot/internal/core"
	"finbot/internal/log"
)

// Queries answers read-only questions about recorded expenses.
type Queries struct {
	Deps
}

func NewQueries(d Deps) *Queries {
	return &Queries{Deps: d}
}

// ByCategory replies with every expense in categories within rng, grouped by
// category, and the total spent.
func (s *Queries) ByCategory(ctx context.Context, chatID int64, categories []string, rng *core.DateRange) {
	s.send(ctx, chatID, s.byCategory(ctx, categories, rng))
}

func (s *Queries) byCategory(ctx context.Context, categories []string, rng *core.DateRange) string {
	categories = core.NormalizeCategories(categories)
	if len(categories) == 0 || rng == nil {
		return "No entendí qué categorías o qué período de tiempo quieres consultar. Inténtalo de nuevo."
	}

	slog.InfoContext(ctx, "Querying expenses by category",
		log.FieldCategories, categories,
		log.FieldRangeStart, rng.Start.String(),
		log.FieldRangeEnd, rng.End.String())

	records, err := s.Store.ListRecords(ctx, core.RecordFilter{Range: rng, Type: core.Expense})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to list records", log.FieldError, err)
	}

	title := rangeTitle(*rng, "el día")
	var (
		order  []string
		lines  = map[string][]string{}
		total  core.Money
		wanted = map[string]bool{}
	)
	for _, c := range categories {
		wanted[c] = true
	}
	for _, r := range records {
		if !wanted[core.CategoryKey(r.Category)] {
			continue
		}
		name := core.Title(r.Category)
		if _, ok := lines[name]; !ok {
			order = append(order, name)
		}
		lines[name] = append(lines[name], fmt.Sprintf("  - %s: %s - $%s", r.Date, r.Description, r.Amount.Display()))
		total = total.Add(r.Amount)
	}

	if len(order) == 0 {
		return fmt.Sprintf("No se encontraron gastos para las categorías %s durante el período %s.",
			strings.Join(categories, ", "), title)
	}

	titled := make([]string, len(categories))
	for i, c := range categories {
		titled[i] = core.Title(c)
	}
	out := []string{fmt.Sprintf("🔎 Detalle de Gastos para %s (%s):\n", strings.Join(titled, ", "), title)}
	for _, name := range order {
		out = append(out, fmt.Sprintf("**%s:**", name))
		out = append(out, lines[name]...)
	}
	out = append(out, "\n-----------------------------------")
	out = append(out, fmt.Sprintf("💰 **Total Gastado:** $%s", s.amount(total)))
	return strings.Join(out, "\n")
}
