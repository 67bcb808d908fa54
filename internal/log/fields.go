package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldChatID      = "chat_id"
	FieldUser        = "user"
	FieldStage       = "stage"
	FieldAction      = "action"
	FieldIntent      = "intent"
	FieldCategory    = "category"
	FieldAmountCents = "amount_cents"
	FieldTxType      = "tx_type"
	FieldCursor      = "cursor"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldSheetsRef   = "sheets_ref"
	FieldRecordID    = "record_id"
	FieldRunID       = "run_id"
	FieldCategories  = "categories"
	FieldRangeStart  = "range_start"
	FieldRangeEnd    = "range_end"
	FieldSpentCents  = "spent_cents"
	FieldBudgetCents = "budget_cents"
	FieldAlert       = "alert"
	FieldAdded       = "added"
	FieldExisting    = "existing"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentBot      = "bot"
	ComponentFlow     = "flow"
	ComponentLLM      = "llm"
	ComponentTelegram = "telegram"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentSheets   = "sheets"
	ComponentCache    = "cache"
	ComponentBackend  = "backend"
)

// Operations defines standard operation names
const (
	OpAppend    = "append"
	OpSetBudget = "set_budget"
	OpAddCat    = "add_category"
	OpSync      = "sync"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithChat adds chat and user fields
func (f LogFields) WithChat(chatID int64, user string) LogFields {
	f[FieldChatID] = chatID
	f[FieldUser] = user
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithTransaction adds transaction-related fields
func (f LogFields) WithTransaction(txType string, category string, amountCents int64) LogFields {
	f[FieldTxType] = txType
	f[FieldCategory] = category
	f[FieldAmountCents] = amountCents
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
