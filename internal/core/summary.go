package core

import "sort"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// PeriodSummary aggregates the records of one date range.
type PeriodSummary struct {
	Range       DateRange
	Records     int
	TotalSpent  Money
	TotalEarned Money
	Balance     Money
	// Income is grouped by description, Expenses by category; both sorted by
	// amount, largest first.
	Income   []CategoryAmount
	Expenses []CategoryAmount
}

// Summarize filters records to rng and aggregates them.
func Summarize(records []Transaction, rng DateRange) PeriodSummary {
	s := PeriodSummary{Range: rng}
	var expenses, income []Transaction
	for _, r := range records {
		if !rng.Contains(r.Date) {
			continue
		}
		s.Records++
		switch r.Type {
		case Expense:
			expenses = append(expenses, r)
			s.TotalSpent = s.TotalSpent.Add(r.Amount)
		case Income:
			income = append(income, r)
			s.TotalEarned = s.TotalEarned.Add(r.Amount)
		}
	}
	s.Balance = s.TotalEarned.Sub(s.TotalSpent)
	s.Income = GroupBy(income, func(t Transaction) string { return CategoryKey(t.Description) })
	s.Expenses = GroupBy(expenses, func(t Transaction) string { return CategoryKey(t.Category) })
	return s
}

// GroupBy sums amounts per key and sorts the groups by amount descending.
// Groups with equal totals keep first-seen order.
func GroupBy(records []Transaction, key func(Transaction) string) []CategoryAmount {
	idx := map[string]int{}
	var out []CategoryAmount
	for _, r := range records {
		k := key(r)
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, CategoryAmount{Name: k})
		}
		out[i].Amount = out[i].Amount.Add(r.Amount)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount.Cents > out[j].Amount.Cents })
	return out
}
