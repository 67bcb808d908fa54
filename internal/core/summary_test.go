package core

import "testing"

func TestSummarize(t *testing.T) {
	rng := NewDateRange(NewDate(2024, 3, 1), NewDate(2024, 3, 31))
	records := []Transaction{
		{Date: NewDate(2024, 3, 2), Type: Expense, Category: "alimentos", Amount: Money{Cents: 10000}},
		{Date: NewDate(2024, 3, 3), Type: Expense, Category: "alimentos", Amount: Money{Cents: 5000}},
		{Date: NewDate(2024, 3, 4), Type: Income, Category: IncomeCategory, Description: "sueldo", Amount: Money{Cents: 50000}},
		{Date: NewDate(2024, 4, 1), Type: Expense, Category: "auto", Amount: Money{Cents: 99999}},
	}
	s := Summarize(records, rng)
	if s.Records != 3 {
		t.Fatalf("records = %d", s.Records)
	}
	if s.TotalSpent.Cents != 15000 || s.TotalEarned.Cents != 50000 || s.Balance.Cents != 35000 {
		t.Fatalf("totals: %+v", s)
	}
	if len(s.Expenses) != 1 || s.Expenses[0].Name != "alimentos" || s.Expenses[0].Amount.Cents != 15000 {
		t.Fatalf("expenses: %+v", s.Expenses)
	}
	if len(s.Income) != 1 || s.Income[0].Name != "sueldo" || s.Income[0].Amount.Cents != 50000 {
		t.Fatalf("income: %+v", s.Income)
	}
}

func TestGroupBySortsDescending(t *testing.T) {
	records := []Transaction{
		{Category: "a", Amount: Money{Cents: 1}},
		{Category: "b", Amount: Money{Cents: 5}},
		{Category: "c", Amount: Money{Cents: 3}},
		{Category: "a", Amount: Money{Cents: 1}},
	}
	got := GroupBy(records, func(t Transaction) string { return t.Category })
	want := []string{"b", "c", "a"}
	for i, name := range want {
		if got[i].Name != name {
			t.Fatalf("position %d: want %s, got %+v", i, name, got)
		}
	}
}
