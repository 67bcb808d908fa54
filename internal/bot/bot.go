// Package bot wires the classifier, extractors and domain operations into
// the message flow and runs it once per inbound chat message.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"finbot/internal/core"
	"finbot/internal/extract"
	"finbot/internal/flow"
	"finbot/internal/intent"
	"finbot/internal/llm"
	"finbot/internal/log"
	"finbot/internal/services"
	"finbot/internal/sheets"
)

// Transport is the chat collaborator.
type Transport interface {
	Receive(ctx context.Context, cursor int) (*core.InboundMessage, int, error)
	Send(ctx context.Context, chatID int64, text string, opts core.SendOptions) error
	Download(ctx context.Context, audioRef string) ([]byte, string, error)
}

// Shared is the scratch state of one flow run.
type Shared struct {
	Inbound         *core.InboundMessage
	Now             time.Time
	ValidCategories []string
	Intent          intent.Intent
	Transactions    []core.Transaction
	Budget          *core.Budget
	Records         []core.Transaction
	Summary         string
	// Failed counts transactions that could not be saved.
	Failed int
	// Visited is the routing trace of the run.
	Visited []string
}

// Options configures a Bot. Transcriber may be nil, which drops voice
// messages.
type Options struct {
	Transport   Transport
	Model       llm.Completer
	Transcriber llm.Transcriber
	Store       sheets.Store
	Currency    string
	Now         func() time.Time
}

type Bot struct {
	transport   Transport
	transcriber llm.Transcriber
	store       sheets.Store
	classifier  *intent.Classifier
	extractor   *extract.Extractor
	processor   *services.TransactionProcessor
	budgets     *services.Budgets
	categories  *services.Categories
	queries     *services.Queries
	currency    string
	now         func() time.Time
	logger      *log.Logger
	flow        *flow.Flow[*Shared]
}

func New(opts Options) *Bot {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	currency := opts.Currency
	if currency == "" {
		currency = services.DefaultCurrency
	}
	deps := services.Deps{
		Store:    opts.Store,
		Sender:   opts.Transport,
		Currency: currency,
		Now:      now,
	}
	b := &Bot{
		transport:   opts.Transport,
		transcriber: opts.Transcriber,
		store:       opts.Store,
		classifier:  intent.NewClassifier(opts.Model),
		extractor:   extract.New(opts.Model),
		processor:   services.NewTransactionProcessor(deps),
		budgets:     services.NewBudgets(deps),
		categories:  services.NewCategories(deps),
		queries:     services.NewQueries(deps),
		currency:    currency,
		now:         now,
		logger:      log.FromContext(context.Background()).WithComponent(log.ComponentBot),
	}
	b.flow = BuildFlow(b)
	return b
}

// Handle runs the flow once for in and returns the run's shared state.
// A panicking stage is logged and ends the run.
func (b *Bot) Handle(ctx context.Context, in *core.InboundMessage) (shared *Shared) {
	if in == nil {
		return &Shared{Now: b.now()}
	}
	shared = &Shared{
		Inbound:         in,
		Now:             b.now(),
		ValidCategories: services.ValidCategories(ctx, b.store),
	}
	ctx = log.WithContext(ctx, b.logger.With(
		log.FieldRunID, uuid.NewString(),
		log.FieldChatID, in.ChatID))
	logger := log.FromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "Flow run panicked",
				log.FieldError, fmt.Sprint(r),
				log.FieldStage, shared.Visited)
		}
	}()

	start := time.Now()
	shared.Visited = b.flow.Run(ctx, shared)
	logger.InfoContext(ctx, "Message handled",
		log.FieldIntent, string(shared.Intent.Label),
		log.FieldStage, shared.Visited,
		log.FieldDuration, time.Since(start).Milliseconds())
	return shared
}
