package bot

import (
	"finbot/internal/flow"
	"finbot/internal/intent"
)

// Stage names.
const (
	StageGetMessage      = "get_message"
	StageTranscribe      = "transcribe"
	StageDetectIntent    = "detect_intent"
	StageParseExpenses   = "parse_expenses"
	StageParseIncome     = "parse_income"
	StageProcess         = "process_transactions"
	StageFetchRecords    = "fetch_records"
	StageFormatSummary   = "format_summary"
	StageSendSummary     = "send_summary"
	StageParseBudget     = "parse_budget"
	StageSetBudget       = "set_budget"
	StageQueryBudget     = "query_budget"
	StageAddCategory     = "add_category"
	StageQueryByCategory = "query_by_category"
	StageHelp            = "help"
	StageFallback        = "fallback"
)

// Transition names.
const (
	ActionAudio           flow.Action = "audio"
	ActionText            flow.Action = "text"
	ActionLogExpense      flow.Action = "log_expense"
	ActionLogIncome       flow.Action = "log_income"
	ActionQueryExpense    flow.Action = "query_expense"
	ActionSetBudget       flow.Action = "set_budget"
	ActionQueryBudget     flow.Action = "query_budget"
	ActionAddCategory     flow.Action = "add_category"
	ActionQueryByCategory flow.Action = "query_by_category"
	ActionShowHelp        flow.Action = "show_help"
	ActionFallback        flow.Action = "fallback"
)

var intentActions = map[intent.Label]flow.Action{
	intent.LogExpense:      ActionLogExpense,
	intent.LogIncome:       ActionLogIncome,
	intent.QueryExpense:    ActionQueryExpense,
	intent.SetBudget:       ActionSetBudget,
	intent.QueryBudget:     ActionQueryBudget,
	intent.AddCategory:     ActionAddCategory,
	intent.QueryByCategory: ActionQueryByCategory,
	intent.ShowHelp:        ActionShowHelp,
}

// ActionFor returns the transition taken out of intent detection for l.
func ActionFor(l intent.Label) flow.Action {
	if a, ok := intentActions[l]; ok {
		return a
	}
	return ActionFallback
}

// BuildFlow connects b's stages into the message graph.
func BuildFlow(b *Bot) *flow.Flow[*Shared] {
	getMessage := b.getMessageStage()
	transcribe := b.transcribeStage()
	detect := b.detectIntentStage()
	parseExpenses := b.parseExpensesStage()
	parseIncome := b.parseIncomeStage()
	process := b.processStage()
	fetch := b.fetchRecordsStage()
	format := b.formatSummaryStage()
	sendSummary := b.sendSummaryStage()
	parseBudget := b.parseBudgetStage()
	setBudget := b.setBudgetStage()

	return flow.New[*Shared](getMessage).
		Branch(getMessage, map[flow.Action]flow.Stage[*Shared]{
			ActionAudio: transcribe,
			ActionText:  detect,
		}).
		Then(transcribe, detect).
		Branch(detect, map[flow.Action]flow.Stage[*Shared]{
			ActionLogExpense:      parseExpenses,
			ActionLogIncome:       parseIncome,
			ActionQueryExpense:    fetch,
			ActionSetBudget:       parseBudget,
			ActionQueryBudget:     b.queryBudgetStage(),
			ActionAddCategory:     b.addCategoryStage(),
			ActionQueryByCategory: b.queryByCategoryStage(),
			ActionShowHelp:        b.replyStage(StageHelp, helpText, helpButton),
			ActionFallback:        b.replyStage(StageFallback, fallbackText, fallbackButton),
		}).
		Then(parseExpenses, process).
		Then(parseIncome, process).
		Then(fetch, format).
		Then(format, sendSummary).
		Then(parseBudget, setBudget)
}
