// Package extract turns free text into typed records through the language
// model. Extractors never fail: bad model output yields no records, and a
// single bad item is dropped without affecting its siblings.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finbot/internal/core"
	"finbot/internal/llm"
)

// Request is the context every extractor needs. An extractor returns nothing
// for a request without text, user name or chat.
type Request struct {
	Text            string
	UserName        string
	ChatID          int64
	ValidCategories []string
	Now             time.Time
}

func (r Request) complete() bool {
	return strings.TrimSpace(r.Text) != "" && strings.TrimSpace(r.UserName) != "" && r.ChatID != 0
}

type Extractor struct {
	model llm.Completer
}

func New(model llm.Completer) *Extractor {
	return &Extractor{model: model}
}

type rawExpense struct {
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
}

// Expenses extracts a list of expenses. Each item's category is mapped into
// the valid set, falling back to "otros".
func (e *Extractor) Expenses(ctx context.Context, req Request) []core.Transaction {
	if !req.complete() {
		return nil
	}

	raw := e.model.Complete(ctx, expensesPrompt(req.Text, req.ValidCategories))
	var items []json.RawMessage
	if err := decode(raw, &items); err != nil {
		slog.WarnContext(ctx, "Expense response is not a JSON array", "error", err, "response", raw)
		return nil
	}

	date := core.DateOf(req.Now)
	var out []core.Transaction
	for i, item := range items {
		var re rawExpense
		if err := json.Unmarshal(item, &re); err != nil {
			slog.WarnContext(ctx, "Skipping malformed expense item", "index", i, "error", err)
			continue
		}
		amount, err := parseAmount(re.Amount)
		if err != nil {
			slog.WarnContext(ctx, "Skipping expense with invalid amount", "index", i, "amount", re.Amount.String())
			continue
		}
		category := core.NormalizeCategory(re.Category, req.ValidCategories)
		if category == core.FallbackCategory && core.CategoryKey(re.Category) != core.FallbackCategory {
			slog.WarnContext(ctx, "Invalid category, assigning fallback", "category", re.Category)
		}
		out = append(out, core.Transaction{
			Date:        date,
			Who:         req.UserName,
			ChatID:      req.ChatID,
			Amount:      amount,
			Description: description(re.Description),
			Category:    category,
			Type:        core.Expense,
		})
	}
	return out
}

type rawIncome struct {
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
}

// Income extracts a single income record.
func (e *Extractor) Income(ctx context.Context, req Request) []core.Transaction {
	if !req.complete() {
		return nil
	}

	raw := e.model.Complete(ctx, incomePrompt(req.Text))
	var ri rawIncome
	if err := decode(raw, &ri); err != nil {
		slog.WarnContext(ctx, "Income response is not a JSON object", "error", err, "response", raw)
		return nil
	}
	amount, err := parseAmount(ri.Amount)
	if err != nil {
		slog.WarnContext(ctx, "Income has invalid amount", "amount", ri.Amount.String())
		return nil
	}

	return []core.Transaction{{
		Date:        core.DateOf(req.Now),
		Who:         req.UserName,
		ChatID:      req.ChatID,
		Amount:      amount,
		Description: description(ri.Description),
		Category:    core.IncomeCategory,
		Type:        core.Income,
	}}
}

type rawBudget struct {
	Category string      `json:"category"`
	Amount   json.Number `json:"amount"`
}

// Budget extracts a budget definition. Both category and a positive amount
// are required.
func (e *Extractor) Budget(ctx context.Context, req Request) *core.Budget {
	if !req.complete() {
		return nil
	}

	raw := e.model.Complete(ctx, budgetPrompt(req.Text))
	var rb rawBudget
	if err := decode(raw, &rb); err != nil {
		slog.WarnContext(ctx, "Could not parse budget details", "error", err, "response", raw)
		return nil
	}
	category := core.CategoryKey(rb.Category)
	if category == "" {
		return nil
	}
	amount, err := parseAmount(rb.Amount)
	if err != nil {
		return nil
	}
	return &core.Budget{Category: category, Max: amount}
}

type rawCategoryNames struct {
	CategoryNames []string `json:"category_names"`
}

// CategoryNames extracts the category names the user wants to add. Entries
// joined by commas or "y"/"and" are split, and duplicates are removed
// ignoring case. Original capitalisation is kept.
func (e *Extractor) CategoryNames(ctx context.Context, req Request) []string {
	if !req.complete() {
		return nil
	}

	raw := e.model.Complete(ctx, categoryNamesPrompt(req.Text))
	var rc rawCategoryNames
	if err := decode(raw, &rc); err != nil {
		slog.WarnContext(ctx, "Could not parse category names", "error", err, "response", raw)
		return nil
	}
	return SplitCategoryNames(rc.CategoryNames)
}

// SplitCategoryNames breaks list entries on commas and the conjunctions
// " y " and " and ", then trims and de-duplicates ignoring case.
func SplitCategoryNames(entries []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, entry := range entries {
		for _, name := range splitList(entry) {
			k := core.CategoryKey(name)
			if k == "" {
				continue
			}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, strings.TrimSpace(name))
		}
	}
	return out
}

var conjunctions = strings.NewReplacer(" y ", ",", " Y ", ",", " and ", ",", " AND ", ",")

func splitList(s string) []string {
	return strings.Split(conjunctions.Replace(" "+s+" "), ",")
}

func decode(raw string, v any) error {
	clean := llm.CleanJSON(raw)
	if clean == "" {
		return fmt.Errorf("empty model response")
	}
	dec := json.NewDecoder(strings.NewReader(clean))
	dec.UseNumber()
	return dec.Decode(v)
}

func parseAmount(n json.Number) (core.Money, error) {
	s := strings.TrimSpace(n.String())
	if s == "" {
		return core.Money{}, core.ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return core.Money{}, fmt.Errorf("%w: %v", core.ErrInvalidAmount, err)
	}
	return core.MoneyFromDecimal(d)
}

func description(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.DefaultDescription
	}
	return s
}
