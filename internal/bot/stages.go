package bot

import (
	"context"
	"strings"
	"time"

	"finbot/internal/core"
	"finbot/internal/extract"
	"finbot/internal/flow"
	"finbot/internal/intent"
	"finbot/internal/log"
	"finbot/internal/services"
)

type none = struct{}

// chatText is the input of stages that only need the message text.
type chatText struct {
	chatID int64
	text   string
}

func textOf(s *Shared) chatText {
	if s.Inbound == nil {
		return chatText{}
	}
	return chatText{chatID: s.Inbound.ChatID, text: strings.TrimSpace(s.Inbound.Text)}
}

func (b *Bot) getMessageStage() flow.Stage[*Shared] {
	return &flow.Node[*Shared, *core.InboundMessage, none]{
		Label: StageGetMessage,
		Prep:  func(_ context.Context, s *Shared) *core.InboundMessage { return s.Inbound },
		Post: func(ctx context.Context, _ *Shared, in *core.InboundMessage, _ none) flow.Action {
			switch {
			case in == nil:
				return flow.End
			case in.Kind == core.AudioMessage && in.AudioRef != "":
				log.FromContext(ctx).DebugContext(ctx, "Routing audio message to transcription")
				return ActionAudio
			case strings.TrimSpace(in.Text) != "":
				return ActionText
			default:
				return flow.End
			}
		},
	}
}

func (b *Bot) transcribeStage() flow.Stage[*Shared] {
	return &flow.Node[*Shared, *core.InboundMessage, string]{
		Label: StageTranscribe,
		Prep:  func(_ context.Context, s *Shared) *core.InboundMessage { return s.Inbound },
		Exec: func(ctx context.Context, in *core.InboundMessage) string {
			logger := log.FromContext(ctx)
			if b.transcriber == nil {
				logger.WarnContext(ctx, "No transcriber configured, dropping audio message")
				return ""
			}
			audio, mimeType, err := b.transport.Download(ctx, in.AudioRef)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to download audio", log.FieldError, err)
				return ""
			}
			if in.AudioMIME != "" {
				mimeType = in.AudioMIME
			}
			text, err := b.transcriber.Transcribe(ctx, audio, mimeType)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to transcribe audio", log.FieldError, err)
				return ""
			}
			logger.InfoContext(ctx, "Audio transcribed", "text", text)
			return strings.TrimSpace(text)
		},
		Post: func(_ context.Context, s *Shared, _ *core.InboundMessage, text string) flow.Action {
			if text == "" {
				return flow.End
			}
			// The inbound message is replaced, never mutated.
			in := *s.Inbound
			in.Kind, in.Text = core.TextMessage, text
			s.Inbound = &in
			return flow.Default
		},
	}
}

type classifyInput struct {
	text string
	now  time.Time
}

func (b *Bot) detectIntentStage() flow.Stage[*Shared] {
	return &flow.Node[*Shared, classifyInput, intent.Intent]{
		Label: StageDetectIntent,
		Prep: func(_ context.Context, s *Shared) classifyInput {
			return classifyInput{text: textOf(s).text, now: s.Now}
		},
		Exec: func(ctx context.Context, in classifyInput) intent.Intent {
			return b.classifier.Classify(ctx, in.text, in.now)
		},
		Post: func(ctx context.Context, s *Shared, _ classifyInput, detected intent.Intent) flow.Action {
			s.Intent = detected
			action := ActionFor(detected.Label)
			log.FromContext(ctx).InfoContext(ctx, "Routing intent",
				log.FieldIntent, string(detected.Label),
				log.FieldAction, string(action))
			return action
		},
	}
}

func extractRequest(s *Shared) extract.Request {
	req := extract.Request{ValidCategories: s.ValidCategories, Now: s.Now}
	if s.Inbound != nil {
		req.Text = s.Inbound.Text
		req.UserName = s.Inbound.UserName
		req.ChatID = s.Inbound.ChatID
	}
	return req
}

func storeTransactions(_ context.Context, s *Shared, _ extract.Request, out []core.Transaction) flow.Action {
	s.Transactions = out
	if len(out) == 0 {
		return flow.End
	}
	return flow.Default
}

func (b *Bot) parseExpensesStage() flow.Stage[*Shared] {
	return &flow.Node[*Shared, extract.Request, []core.Transaction]{
		Label: StageParseExpenses,
		Prep:  func(_ context.Context, s *Shared) extract.Request { return extractRequest(s) },
		Exec:  b.extractor.Expenses,
		Post:  storeTransactions,
	}
}

func (b *Bot) parseIncomeStage() flow.Stage[*Shared] {
	return &flow.Node[*Shared, extract.Request, []core.Transaction]{
		Label: StageParseIncome,
		Prep:  func(_ context.Context, s *Shared) extract.Request { return extractRequest(s) },
		Exec:  b.extractor.Income,
		Post:  storeTransactions,
	}
}

// processStage saves each transaction in order, so an item's budget alert
// sees the items saved before it.
func (b *Bot) processStage() flow.Stage[*Shared] {
	return &flow.Batch[*Shared, core.Transaction]{
		Label: StageProcess,
		Prep:  func(_ context.Context, s *Shared) []core.Transaction { return s.Transactions },
		Exec:  b.processor.Process,
		Post: func(ctx context.Context, s *Shared, outcomes []flow.Outcome[core.Transaction]) flow.Action {
			for _, o := range outcomes {
				if o.Err != nil {
					s.Failed++
					log.FromContext(ctx).WarnContext(ctx, "Transaction not recorded",
						log.FieldError, o.Err,
						log.FieldCategory, o.Item.Category)
				}
			}
			return flow.End
		},
	}
}

func (b *Bot) fetchRecordsStage() flow.Stage[*Shared] {
	return &flow.Node[*Shared, none, []core.Transaction]{
		Label: StageFetchRecords,
		Exec: func(ctx context.Context, _ none) []core.Transaction {
			records, err := b.store.ListRecords(ctx, core.RecordFilter{})
			if err != nil {
				log.FromContext(ctx).ErrorContext(ctx, "Failed to fetch records", log.FieldError, err)
				return nil
			}
			log.FromContext(ctx).InfoContext(ctx, "Records fetched", "count", len(records))
			return records
		},
		Post: func(_ context.Context, s *Shared, _ none, records []core.Transaction) flow.Action {
			s.Records = records
			return flow.Default
		},
	}
}

type summaryInput struct {
	records []core.Transaction
	rng     *core.DateRange
}

func (b *Bot) formatSummaryStage() flow.Stage[*Shared] {
	return &flow.Node[*Shared, summaryInput, string]{
		Label: StageFormatSummary,
		Prep: func(_ context.Context, s *Shared) summaryInput {
			return summaryInput{records: s.Records, rng: s.Intent.Entities.Range}
		},
		Exec: func(_ context.Context, in summaryInput) string {
			return services.FormatSummary(in.records, in.rng, b.currency)
		},
		Post: func(_ context.Context, s *Shared, _ summaryInput, text string) flow.Action {
			s.Summary = text
			return flow.Default
		},
	}
}

func (b *Bot) sendSummaryStage() flow.Stage[*Shared] {
	return &flow.Node[*Shared, chatText, none]{
		Label: StageSendSummary,
		Prep: func(_ context.Context, s *Shared) chatText {
			return chatText{chatID: textOf(s).chatID, text: s.Summary}
		},
		Exec: func(ctx context.Context, in chatText) none {
			b.send(ctx, in.chatID, in.text, core.SendOptions{})
			return none{}
		},
	}
}

func (b *Bot) parseBudgetStage() flow.Stage[*Shared] {
	return &flow.Node[*Shared, extract.Request, *core.Budget]{
		Label: StageParseBudget,
		Prep:  func(_ context.Context, s *Shared) extract.Request { return extractRequest(s) },
		Exec: func(ctx context.Context, req extract.Request) *core.Budget {
			return b.extractor.Budget(ctx, req)
		},
		Post: func(_ context.Context, s *Shared, _ extract.Request, budget *core.Budget) flow.Action {
			if budget == nil {
				return flow.End
			}
			s.Budget = budget
			return flow.Default
		},
	}
}

type budgetInput struct {
	chatID int64
	budget *core.Budget
}

func (b *Bot) setBudgetStage() flow.Stage[*Shared] {
	return &flow.Node[*Shared, budgetInput, none]{
		Label: StageSetBudget,
		Prep: func(_ context.Context, s *Shared) budgetInput {
			return budgetInput{chatID: textOf(s).chatID, budget: s.Budget}
		},
		Exec: func(ctx context.Context, in budgetInput) none {
			if in.budget != nil && in.chatID != 0 {
				b.budgets.Set(ctx, in.chatID, *in.budget)
			}
			return none{}
		},
	}
}

type entityInput struct {
	chatID   int64
	entities intent.Entities
}

func entitiesOf(s *Shared) entityInput {
	return entityInput{chatID: textOf(s).chatID, entities: s.Intent.Entities}
}

func (b *Bot) queryBudgetStage() flow.Stage[*Shared] {
	return &flow.Node[*Shared, entityInput, none]{
		Label: StageQueryBudget,
		Prep:  func(_ context.Context, s *Shared) entityInput { return entitiesOf(s) },
		Exec: func(ctx context.Context, in entityInput) none {
			b.budgets.Query(ctx, in.chatID, in.entities.Category)
			return none{}
		},
	}
}

func (b *Bot) addCategoryStage() flow.Stage[*Shared] {
	return &flow.Node[*Shared, extract.Request, none]{
		Label: StageAddCategory,
		Prep:  func(_ context.Context, s *Shared) extract.Request { return extractRequest(s) },
		Exec: func(ctx context.Context, req extract.Request) none {
			names := b.extractor.CategoryNames(ctx, req)
			b.categories.Add(ctx, req.ChatID, names)
			return none{}
		},
	}
}

func (b *Bot) queryByCategoryStage() flow.Stage[*Shared] {
	return &flow.Node[*Shared, entityInput, none]{
		Label: StageQueryByCategory,
		Prep:  func(_ context.Context, s *Shared) entityInput { return entitiesOf(s) },
		Exec: func(ctx context.Context, in entityInput) none {
			b.queries.ByCategory(ctx, in.chatID, in.entities.Categories, in.entities.Range)
			return none{}
		},
	}
}

// replyStage sends a fixed text with one inline button and ends the run.
func (b *Bot) replyStage(name, text string, button core.Button) flow.Stage[*Shared] {
	return &flow.Node[*Shared, int64, none]{
		Label: name,
		Prep:  func(_ context.Context, s *Shared) int64 { return textOf(s).chatID },
		Exec: func(ctx context.Context, chatID int64) none {
			b.send(ctx, chatID, text, core.SendOptions{Button: &button})
			return none{}
		},
	}
}

func (b *Bot) send(ctx context.Context, chatID int64, text string, opts core.SendOptions) {
	if chatID == 0 || text == "" {
		return
	}
	if err := b.transport.Send(ctx, chatID, text, opts); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Failed to send reply", log.FieldError, err)
	}
}
