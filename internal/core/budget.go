package core

import "time"

const (
	WarnThreshold  = 85.0
	LimitThreshold = 100.0
)

// AlertKind is the budget alert raised after an expense is recorded.
type AlertKind int

const (
	AlertNone AlertKind = iota
	AlertCrossed100
	AlertStillOver100
	AlertCrossed85
)

func (k AlertKind) String() string {
	switch k {
	case AlertCrossed100:
		return "crossed_100"
	case AlertStillOver100:
		return "still_over_100"
	case AlertCrossed85:
		return "crossed_85"
	default:
		return "none"
	}
}

// Percent returns part/whole*100, or 0 when whole is not positive.
func Percent(part, whole Money) float64 {
	if whole.Cents <= 0 {
		return 0
	}
	return float64(part.Cents) / float64(whole.Cents) * 100
}

// EvaluateBudgetAlert decides which alert, if any, a new expense of amount
// triggers given month-to-date spend after it was recorded. At most one
// alert is returned; the checks run in priority order.
func EvaluateBudgetAlert(spentAfter, amount, budget Money) AlertKind {
	before := Percent(spentAfter.Sub(amount), budget)
	after := Percent(spentAfter, budget)
	switch {
	case after >= LimitThreshold && before < LimitThreshold:
		return AlertCrossed100
	case after > LimitThreshold && before >= LimitThreshold:
		return AlertStillOver100
	case after >= WarnThreshold && before < WarnThreshold:
		return AlertCrossed85
	default:
		return AlertNone
	}
}

// MonthToDateSpend sums expense amounts for category in now's calendar month
// and year. Records with a zero date are skipped.
func MonthToDateSpend(records []Transaction, category string, now time.Time) Money {
	key := CategoryKey(category)
	var total Money
	for _, r := range records {
		if r.Type != Expense || CategoryKey(r.Category) != key {
			continue
		}
		if r.Date.IsZero() {
			continue
		}
		if r.Date.Year() == now.Year() && r.Date.Month() == now.Month() {
			total = total.Add(r.Amount)
		}
	}
	return total
}

// LookupBudget finds the budget for category ignoring case.
func LookupBudget(budgets map[string]Money, category string) (Money, bool) {
	key := CategoryKey(category)
	if m, ok := budgets[key]; ok {
		return m, true
	}
	for k, m := range budgets {
		if CategoryKey(k) == key {
			return m, true
		}
	}
	return Money{}, false
}
