package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"finbot/internal/core"
	"finbot/internal/log"
)

// ErrNoChat is returned for a transaction that has no chat to reply to.
var ErrNoChat = errors.New("transaction without chat id")

// TransactionProcessor records one parsed transaction at a time, confirms it
// to the chat and raises a budget alert when an expense crosses a threshold.
type TransactionProcessor struct {
	Deps
}

func NewTransactionProcessor(d Deps) *TransactionProcessor {
	return &TransactionProcessor{Deps: d}
}

// Process persists t. On a write failure nothing is sent and the error is
// returned so the caller can move on to the next item.
func (p *TransactionProcessor) Process(ctx context.Context, t core.Transaction) error {
	if t.ChatID == 0 {
		return ErrNoChat
	}

	fields := log.NewFields().
		WithOperation(log.OpAppend).
		WithChat(t.ChatID, t.Who).
		WithTransaction(string(t.Type), t.Category, t.Amount.Cents)
	slog.InfoContext(ctx, "Processing transaction", fields.ToSlice()...)

	ref, err := p.Store.AppendRecord(ctx, t)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to save transaction", fields.WithError(err).ToSlice()...)
		return fmt.Errorf("append record: %w", err)
	}
	slog.DebugContext(ctx, "Transaction saved", log.FieldSheetsRef, ref)

	p.send(ctx, t.ChatID, p.confirmation(t))

	if t.Type == core.Expense {
		if alert := p.budgetAlert(ctx, t); alert != "" {
			slog.InfoContext(ctx, "Sending budget alert", log.FieldChatID, t.ChatID, log.FieldCategory, t.Category)
			p.send(ctx, t.ChatID, alert)
		}
	}
	return nil
}

func (p *TransactionProcessor) confirmation(t core.Transaction) string {
	if t.Type == core.Income {
		return fmt.Sprintf("Ingreso Registrado 💸\nMonto: %s\nDescripción: %s", p.amount(t.Amount), t.Description)
	}
	return fmt.Sprintf("Gasto Registrado ✅\nMonto: %s\nCategoría: %s", p.amount(t.Amount), t.Category)
}

// budgetAlert returns the alert text for expense t, or "" when none applies.
// Lookup failures are logged and suppress the alert.
func (p *TransactionProcessor) budgetAlert(ctx context.Context, t core.Transaction) string {
	budgets, err := p.Store.Budgets(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read budgets", log.FieldError, err)
		return ""
	}
	budget, ok := core.LookupBudget(budgets, t.Category)
	if !ok || budget.Cents <= 0 {
		return ""
	}

	records, err := p.Store.ListRecords(ctx, core.RecordFilter{Type: core.Expense})
	if err != nil {
		slog.WarnContext(ctx, "Failed to read records for budget check", log.FieldError, err)
		return ""
	}
	spent := core.MonthToDateSpend(records, t.Category, p.now())

	kind := core.EvaluateBudgetAlert(spent, t.Amount, budget)
	slog.DebugContext(ctx, "Budget check",
		log.FieldCategory, t.Category,
		log.FieldSpentCents, spent.Cents,
		log.FieldBudgetCents, budget.Cents,
		log.FieldAlert, kind.String())

	cat := core.Title(t.Category)
	tail := fmt.Sprintf("Gastado este mes: %s de %s.", spent.Display(), p.amount(budget))
	switch kind {
	case core.AlertCrossed100:
		return fmt.Sprintf("🚨 ¡Alerta de Presupuesto! 🚨\nAcabas de superar el 100%% de tu presupuesto para '%s'.\n%s", cat, tail)
	case core.AlertStillOver100:
		return fmt.Sprintf("🚨 ¡Sigues por encima del presupuesto! 🚨\nNuevo gasto en '%s' mientras estás sobre el límite.\n%s", cat, tail)
	case core.AlertCrossed85:
		return fmt.Sprintf("⚠️ ¡Atención! ⚠️\nYa has utilizado más del 85%% de tu presupuesto para '%s'.\n%s", cat, tail)
	default:
		return ""
	}
}
