package intent

import (
	"testing"
	"time"
)

func TestResolveRange(t *testing.T) {
	// Friday.
	now := time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		text      string
		wantStart string
		wantEnd   string
		wantOK    bool
	}{
		{"resumen de hoy", "2024-03-15", "2024-03-15", true},
		{"what did I spend today", "2024-03-15", "2024-03-15", true},
		{"cuanto gaste ayer?", "2024-03-14", "2024-03-14", true},
		{"yesterday", "2024-03-14", "2024-03-14", true},
		{"gastos de anteayer", "2024-03-13", "2024-03-13", true},
		{"resumen de este mes", "2024-03-01", "2024-03-31", true},
		{"this month please", "2024-03-01", "2024-03-31", true},
		{"resumen del mes pasado", "2024-02-01", "2024-02-29", true},
		{"last month", "2024-02-01", "2024-02-29", true},
		{"los últimos 10 días", "2024-03-05", "2024-03-15", true},
		{"last 7 days", "2024-03-08", "2024-03-15", true},
		{"resumen de esta semana", "2024-03-11", "2024-03-15", true},
		{"gastos en salidas la semana pasada", "2024-03-04", "2024-03-10", true},
		{"resumen de este año", "2024-01-01", "2024-12-31", true},
		{"gaste 500 en cafe", "", "", false},
		{"hoyo en el techo", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ResolveRange(tt.text, now)
			if ok != tt.wantOK {
				t.Fatalf("ResolveRange(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Start.String() != tt.wantStart || got.End.String() != tt.wantEnd {
				t.Errorf("ResolveRange(%q) = %s..%s, want %s..%s", tt.text, got.Start, got.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestResolveRangeAcrossYearBoundary(t *testing.T) {
	now := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)

	got, ok := ResolveRange("mes pasado", now)
	if !ok || got.Start.String() != "2024-12-01" || got.End.String() != "2024-12-31" {
		t.Fatalf("last month = %s..%s ok=%v", got.Start, got.End, ok)
	}

	// Thursday; the week started on Monday 2024-12-30.
	got, ok = ResolveRange("esta semana", now)
	if !ok || got.Start.String() != "2024-12-30" || got.End.String() != "2025-01-02" {
		t.Fatalf("this week = %s..%s ok=%v", got.Start, got.End, ok)
	}
}

func TestResolveRangeOnSunday(t *testing.T) {
	now := time.Date(2024, 3, 17, 12, 0, 0, 0, time.UTC)
	got, ok := ResolveRange("this week", now)
	if !ok || got.Start.String() != "2024-03-11" || got.End.String() != "2024-03-17" {
		t.Fatalf("this week = %s..%s ok=%v", got.Start, got.End, ok)
	}
}

func TestNamesSpan(t *testing.T) {
	cases := map[string]bool{
		"resumen desde el lunes hasta hoy": true,
		"gastos ENTRE el 1 y el 5":         true,
		"from monday until today":          true,
		"resumen de hoy":                   false,
		"gastos del mes pasado":            false,
		"hastahoy":                         false,
	}
	for text, want := range cases {
		if got := NamesSpan(text); got != want {
			t.Errorf("NamesSpan(%q) = %v, want %v", text, got, want)
		}
	}
}
