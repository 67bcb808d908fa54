package extract

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"finbot/internal/core"
	"finbot/internal/llm"
)

var (
	testNow   = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	testValid = []string{"Alimentos", "Salidas", "Auto", "Otros"}
)

type recordingModel struct {
	reply   string
	prompts []string
}

func (m *recordingModel) Complete(_ context.Context, prompt string) string {
	m.prompts = append(m.prompts, prompt)
	return m.reply
}

var _ llm.Completer = (*recordingModel)(nil)

func request(text string) Request {
	return Request{Text: text, UserName: "Ana", ChatID: 42, ValidCategories: testValid, Now: testNow}
}

func TestExpenses(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  []core.Transaction
	}{
		{
			name:  "two items with normalisation",
			reply: "```json\n[{\"amount\": 15000, \"category\": \"Auto\", \"description\": \"nafta\"}, {\"amount\": \"3000.5\", \"category\": \"peajes\"}]\n```",
			want: []core.Transaction{
				{Date: core.NewDate(2024, 3, 15), Who: "Ana", ChatID: 42, Amount: core.Money{Cents: 1500000}, Description: "nafta", Category: "auto", Type: core.Expense},
				{Date: core.NewDate(2024, 3, 15), Who: "Ana", ChatID: 42, Amount: core.Money{Cents: 300050}, Description: core.DefaultDescription, Category: "otros", Type: core.Expense},
			},
		},
		{
			name:  "bad items are dropped individually",
			reply: `[{"amount": -5, "category": "auto"}, {"amount": 0}, {"category": "auto"}, {"amount": "mucho"}, "texto", {"amount": 2500, "category": "salidas", "description": "cafe"}]`,
			want: []core.Transaction{
				{Date: core.NewDate(2024, 3, 15), Who: "Ana", ChatID: 42, Amount: core.Money{Cents: 250000}, Description: "cafe", Category: "salidas", Type: core.Expense},
			},
		},
		{name: "object instead of array", reply: `{"amount": 100}`, want: nil},
		{name: "empty model output", reply: ``, want: nil},
		{name: "malformed json", reply: `[{"amount": 100`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(&recordingModel{reply: tt.reply})
			got := e.Expenses(context.Background(), request("gaste cosas"))
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Expenses() = %+v\nwant %+v", got, tt.want)
			}
			for _, tx := range got {
				if !core.ContainsCategory(testValid, tx.Category) {
					t.Errorf("category %q not in the valid set", tx.Category)
				}
			}
		})
	}
}

func TestExpensesRequiresContext(t *testing.T) {
	m := &recordingModel{reply: `[{"amount": 1, "category": "auto"}]`}
	e := New(m)

	for _, req := range []Request{
		{Text: "", UserName: "Ana", ChatID: 1},
		{Text: "gaste 1", UserName: "", ChatID: 1},
		{Text: "gaste 1", UserName: "Ana", ChatID: 0},
	} {
		if got := e.Expenses(context.Background(), req); got != nil {
			t.Errorf("Expenses(%+v) = %v, want nil", req, got)
		}
		if got := e.Income(context.Background(), req); got != nil {
			t.Errorf("Income(%+v) = %v, want nil", req, got)
		}
	}
	if len(m.prompts) != 0 {
		t.Fatalf("model called %d times", len(m.prompts))
	}
}

func TestExpensesPromptListsCategories(t *testing.T) {
	m := &recordingModel{reply: `[]`}
	New(m).Expenses(context.Background(), request("fui al super"))
	if len(m.prompts) != 1 || !strings.Contains(m.prompts[0], "alimentos, salidas, auto, otros") {
		t.Fatalf("prompt = %v", m.prompts)
	}
}

func TestIncome(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  []core.Transaction
	}{
		{
			name:  "income with description",
			reply: `{"amount": 150000, "description": "sueldo"}`,
			want: []core.Transaction{{
				Date: core.NewDate(2024, 3, 15), Who: "Ana", ChatID: 42, Amount: core.Money{Cents: 15000000},
				Description: "sueldo", Category: core.IncomeCategory, Type: core.Income,
			}},
		},
		{
			name:  "missing description",
			reply: `{"amount": 20000.75}`,
			want: []core.Transaction{{
				Date: core.NewDate(2024, 3, 15), Who: "Ana", ChatID: 42, Amount: core.Money{Cents: 2000075},
				Description: core.DefaultDescription, Category: core.IncomeCategory, Type: core.Income,
			}},
		},
		{name: "missing amount", reply: `{"description": "sueldo"}`, want: nil},
		{name: "array instead of object", reply: `[{"amount": 1}]`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(&recordingModel{reply: tt.reply}).Income(context.Background(), request("cobre"))
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Income() = %+v\nwant %+v", got, tt.want)
			}
		})
	}
}

func TestBudget(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  *core.Budget
	}{
		{"valid", `{"category": " Alimentos ", "amount": 50000}`, &core.Budget{Category: "alimentos", Max: core.Money{Cents: 5000000}}},
		{"missing category", `{"amount": 50000}`, nil},
		{"missing amount", `{"category": "ocio"}`, nil},
		{"zero amount", `{"category": "ocio", "amount": 0}`, nil},
		{"garbage", `no se`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(&recordingModel{reply: tt.reply}).Budget(context.Background(), request("presupuesto"))
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Budget() = %+v, want %+v", got, tt.want)
			}
		})
	}

	incomplete := map[string]Request{
		"empty text":   request(" "),
		"no user name": {Text: "presupuesto ocio 100", ChatID: 42},
		"no chat":      {Text: "presupuesto ocio 100", UserName: "Ana"},
	}
	for name, req := range incomplete {
		model := &recordingModel{reply: `{"category": "ocio", "amount": 1}`}
		if got := New(model).Budget(context.Background(), req); got != nil {
			t.Fatalf("Budget() with %s = %+v", name, got)
		}
		if len(model.prompts) != 0 {
			t.Fatalf("%s: model was called", name)
		}
	}
}

func TestCategoryNames(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  []string
	}{
		{"simple list", `{"category_names": ["Viajes", "Gimnasio"]}`, []string{"Viajes", "Gimnasio"}},
		{"joined entries are split", `{"category_names": ["Inversiones, Salud y Educación", "cine and teatro"]}`, []string{"Inversiones", "Salud", "Educación", "cine", "teatro"}},
		{"duplicates ignoring case", `{"category_names": ["Viajes", "viajes ", "VIAJES"]}`, []string{"Viajes"}},
		{"empty list", `{"category_names": []}`, nil},
		{"wrong type", `{"category_names": "Viajes"}`, nil},
		{"garbage", `sin json`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(&recordingModel{reply: tt.reply}).CategoryNames(context.Background(), request("agrega categorias"))
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("CategoryNames() = %#v, want %#v", got, tt.want)
			}
		})
	}

	incomplete := map[string]Request{
		"empty text":   request(""),
		"no user name": {Text: "agrega viajes", ChatID: 42},
		"no chat":      {Text: "agrega viajes", UserName: "Ana"},
	}
	for name, req := range incomplete {
		model := &recordingModel{reply: `{"category_names": ["Viajes"]}`}
		if got := New(model).CategoryNames(context.Background(), req); got != nil {
			t.Fatalf("CategoryNames() with %s = %#v", name, got)
		}
		if len(model.prompts) != 0 {
			t.Fatalf("%s: model was called", name)
		}
	}
}

func TestSplitCategoryNamesKeepsWordsContainingConjunctions(t *testing.T) {
	got := SplitCategoryNames([]string{"Yoga", "Handball", "Ropa y calzado"})
	want := []string{"Yoga", "Handball", "Ropa", "calzado"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SplitCategoryNames() = %v, want %v", got, want)
	}
}
