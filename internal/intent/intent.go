// Package intent classifies a chat message into one of a fixed set of
// intents and extracts the small entities each intent needs.
package intent

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"finbot/internal/core"
	"finbot/internal/llm"
)

type Label string

const (
	LogExpense      Label = "LOG_EXPENSE"
	LogIncome       Label = "LOG_INCOME"
	QueryExpense    Label = "QUERY_EXPENSE"
	SetBudget       Label = "SET_BUDGET"
	QueryBudget     Label = "QUERY_BUDGET"
	AddCategory     Label = "ADD_CATEGORY"
	QueryByCategory Label = "QUERY_BY_CATEGORY"
	ShowHelp        Label = "SHOW_HELP"
	Other           Label = "OTHER"
)

// Labels lists every label in prompt order.
var Labels = []Label{
	LogExpense, LogIncome, QueryExpense, SetBudget, QueryBudget,
	AddCategory, QueryByCategory, ShowHelp, Other,
}

// spanishLabels maps the Spanish names the model sometimes answers with.
var spanishLabels = map[string]Label{
	"REGISTRAR_GASTO":                LogExpense,
	"REGISTRAR_INGRESO":              LogIncome,
	"CONSULTAR_GASTOS":               QueryExpense,
	"DEFINIR_PRESUPUESTO":            SetBudget,
	"CONSULTAR_PRESUPUESTO":          QueryBudget,
	"AGREGAR_CATEGORIA":              AddCategory,
	"CONSULTAR_GASTOS_POR_CATEGORIA": QueryByCategory,
	"PEDIR_AYUDA":                    ShowHelp,
	"OTRO":                           Other,
}

// ParseLabel maps a model label to a Label, falling back to Other.
func ParseLabel(s string) Label {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, l := range Labels {
		if string(l) == s {
			return l
		}
	}
	if l, ok := spanishLabels[s]; ok {
		return l
	}
	return Other
}

// NeedsRange reports whether the label queries records over a date range.
func (l Label) NeedsRange() bool {
	return l == QueryExpense || l == QueryByCategory
}

// Entities holds what the classifier extracted alongside the label.
type Entities struct {
	Range      *core.DateRange
	Category   string
	Categories []string
}

type Intent struct {
	Label    Label
	Entities Entities
}

// Unknown is the intent produced when classification fails.
func Unknown() Intent {
	return Intent{Label: Other}
}

// Classifier asks the language model for an intent.
type Classifier struct {
	model llm.Completer
}

func NewClassifier(model llm.Completer) *Classifier {
	return &Classifier{model: model}
}

// Classify never fails: any model or parsing problem yields Unknown().
// Relative date phrases in text are resolved against now and take precedence
// over the dates the model returned, unless the text names an explicit span
// ("desde ... hasta ...") and the model returned a valid range for it.
func (c *Classifier) Classify(ctx context.Context, text string, now time.Time) Intent {
	text = strings.TrimSpace(text)
	if text == "" {
		return Unknown()
	}

	raw := c.model.Complete(ctx, buildPrompt(text, now))
	in, ok := parseResponse(raw)
	if !ok {
		slog.WarnContext(ctx, "Could not parse intent response", "response", raw)
		return Unknown()
	}

	if in.Label.NeedsRange() {
		// An explicit span keeps the model's dates when it returned any.
		if in.Entities.Range == nil || !NamesSpan(text) {
			if rng, ok := ResolveRange(text, now); ok {
				in.Entities.Range = &rng
			}
		}
	} else {
		in.Entities.Range = nil
	}

	slog.InfoContext(ctx, "Intent detected", "intent", string(in.Label))
	return in
}

type rawIntent struct {
	Intent   string          `json:"intent"`
	Entities json.RawMessage `json:"entities"`
}

type rawEntities struct {
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
	Category   string   `json:"category"`
	Categories []string `json:"categories"`
}

// parseResponse decodes the model's JSON. Any shape mismatch is a failure.
func parseResponse(raw string) (Intent, bool) {
	clean := llm.CleanJSON(raw)
	if clean == "" {
		return Intent{}, false
	}

	var ri rawIntent
	if err := json.Unmarshal([]byte(clean), &ri); err != nil {
		return Intent{}, false
	}
	if ri.Intent == "" {
		return Intent{}, false
	}

	var re rawEntities
	if len(ri.Entities) > 0 && string(ri.Entities) != "null" {
		if err := json.Unmarshal(ri.Entities, &re); err != nil {
			return Intent{}, false
		}
	}

	in := Intent{Label: ParseLabel(ri.Intent)}
	if in.Label == Other {
		return in, true
	}

	in.Entities.Category = core.CategoryKey(re.Category)
	if len(re.Categories) > 0 {
		in.Entities.Categories = core.NormalizeCategories(re.Categories)
	}
	if re.StartDate != "" && re.EndDate != "" {
		start, err1 := core.ParseDate(re.StartDate)
		end, err2 := core.ParseDate(re.EndDate)
		if err1 == nil && err2 == nil {
			rng := core.NewDateRange(start, end)
			in.Entities.Range = &rng
		}
	}
	return in, true
}
