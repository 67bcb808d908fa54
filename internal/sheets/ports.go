package sheets

import (
	"context"

	"finbot/internal/core"
)

// Ports for outbound adapters.
type (
	RecordAppender interface {
		// AppendRecord persists the six canonical fields of t and returns a
		// backend-specific reference to the written row.
		AppendRecord(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}

	RecordLister interface {
		ListRecords(ctx context.Context, filter core.RecordFilter) ([]core.Transaction, error)
	}

	BudgetStore interface {
		// Budgets returns the budgets keyed by core.CategoryKey.
		Budgets(ctx context.Context) (map[string]core.Money, error)
		// SetBudget updates the budget whose category matches ignoring case,
		// or appends a new one.
		SetBudget(ctx context.Context, b core.Budget) error
	}

	CategoryStore interface {
		Categories(ctx context.Context) ([]string, error)
		// AddCategory appends name unless it already exists ignoring case.
		// It reports whether the name was added.
		AddCategory(ctx context.Context, name string) (added bool, err error)
	}

	// Store is everything the bot needs from a persistence backend.
	Store interface {
		RecordAppender
		RecordLister
		BudgetStore
		CategoryStore
	}
)
