package core

import (
	"strings"
)

// RecordHeader lists the persisted record columns in order:
// date, amount, category, description, who, type.
var RecordHeader = []string{"Fecha", "Monto", "Categoria", "Descripcion", "Quien", "Tipo"}

// RecordFilter narrows ListRecords results. The zero value matches everything.
type RecordFilter struct {
	Range *DateRange
	Type  TxType
}

// Matches reports whether t passes the filter.
func (f RecordFilter) Matches(t Transaction) bool {
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.Range != nil && !f.Range.Contains(t.Date) {
		return false
	}
	return true
}

// Row returns the canonical six persisted fields of t.
func (t Transaction) Row() []string {
	return []string{
		t.Date.String(),
		t.Amount.String(),
		t.Category,
		t.Description,
		t.Who,
		string(t.Type),
	}
}

// TransactionFromRow rebuilds a record from persisted cells. Rows without a
// parsable amount are rejected; an unparsable date is kept as the zero Date
// so that callers can skip it.
func TransactionFromRow(cols []string) (Transaction, bool) {
	get := func(i int) string {
		if i < len(cols) {
			return strings.TrimSpace(cols[i])
		}
		return ""
	}
	amount, ok := ParseStoredAmount(get(1))
	if !ok {
		return Transaction{}, false
	}
	date, _ := ParseDate(get(0))
	return Transaction{
		Date:        date,
		Amount:      amount,
		Category:    get(2),
		Description: get(3),
		Who:         get(4),
		Type:        TxType(get(5)),
	}, true
}

// FilterRecords returns the records that match f, preserving order.
func FilterRecords(records []Transaction, f RecordFilter) []Transaction {
	out := make([]Transaction, 0, len(records))
	for _, r := range records {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}
