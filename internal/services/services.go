// Package services implements the domain operations the bot runs after an
// intent is detected: recording transactions with budget alerts, budgets,
// categories and record queries.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finbot/internal/core"
	"finbot/internal/log"
	"finbot/internal/sheets"
)

// DefaultCurrency is the label appended to amounts in replies.
const DefaultCurrency = "PESOS"

// Sender delivers a reply to a chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string, opts core.SendOptions) error
}

// Deps groups the collaborators shared by every operation.
type Deps struct {
	Store    sheets.Store
	Sender   Sender
	Currency string
	Now      func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deps) currency() string {
	if d.Currency == "" {
		return DefaultCurrency
	}
	return d.Currency
}

// amount formats m followed by the currency label, e.g. "1,500.00 PESOS".
func (d Deps) amount(m core.Money) string {
	return m.Display() + " " + d.currency()
}

// send delivers text and logs delivery failures; replies are best effort.
func (d Deps) send(ctx context.Context, chatID int64, text string) {
	d.sendWith(ctx, chatID, text, core.SendOptions{})
}

func (d Deps) sendWith(ctx context.Context, chatID int64, text string, opts core.SendOptions) {
	if chatID == 0 || text == "" || d.Sender == nil {
		return
	}
	if err := d.Sender.Send(ctx, chatID, text, opts); err != nil {
		slog.ErrorContext(ctx, "Failed to send reply", log.FieldChatID, chatID, log.FieldError, err)
	}
}

// rangeTitle renders a period as "del A al B", or single+day for one day.
func rangeTitle(r core.DateRange, single string) string {
	if r.SingleDay() {
		return fmt.Sprintf("%s %s", single, r.Start)
	}
	return fmt.Sprintf("del %s al %s", r.Start, r.End)
}
