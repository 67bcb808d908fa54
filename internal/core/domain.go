package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO day format used for persisted records and model prompts.
const DateLayout = "2006-01-02"

const (
	Expense TxType = "Gasto"
	Income  TxType = "Ingreso"

	TextMessage  MessageKind = "text"
	AudioMessage MessageKind = "audio"
)

const (
	// IncomeCategory is the fixed category written for income rows.
	IncomeCategory = "Ingreso"
	// FallbackCategory replaces any expense category outside the valid set.
	FallbackCategory = "otros"
	// DefaultDescription is used when the model returns no description.
	DefaultDescription = "Sin descripción"
)

type (
	TxType      string
	MessageKind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// InboundMessage is one message received from the chat transport.
	InboundMessage struct {
		ChatID    int64
		UserName  string
		Kind      MessageKind
		Text      string
		AudioRef  string
		AudioMIME string
	}

	// Button is an inline reply button. Pressing it sends Data back to the
	// bot as if the user had typed it.
	Button struct {
		Text string
		Data string
	}

	// SendOptions tunes an outbound message.
	SendOptions struct {
		Button *Button
	}

	// Transaction is a logged money movement. Records read back from a
	// backend carry a zero ChatID because the chat is not persisted.
	Transaction struct {
		Date        Date
		Who         string
		ChatID      int64
		Amount      Money
		Description string
		Category    string
		Type        TxType
	}

	// Budget is a monthly ceiling for one category.
	Budget struct {
		Category string
		Max      Money
	}

	// DateRange is an inclusive range of calendar days.
	DateRange struct {
		Start Date
		End   Date
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidType      = errors.New("invalid transaction type")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses an ISO day ("2006-01-02").
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// AddDays returns the date n days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (t TxType) Valid() bool {
	return t == Expense || t == Income
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	return b.Max.Validate()
}

// NewDateRange orders start and end so that Start <= End.
func NewDateRange(start, end Date) DateRange {
	if end.Before(start.Time) {
		start, end = end, start
	}
	return DateRange{Start: start, End: end}
}

// Contains reports whether d falls inside the range, both ends inclusive.
// Zero dates are never contained.
func (r DateRange) Contains(d Date) bool {
	if d.IsZero() {
		return false
	}
	return !d.Before(r.Start.Time) && !d.After(r.End.Time)
}

func (r DateRange) SingleDay() bool {
	return r.Start.Equal(r.End.Time)
}
