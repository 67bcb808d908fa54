package services

import (
	"fmt"
	"strings"

	"finbot/internal/core"
)

// FormatSummary renders the period summary reply for records. records is
// the full unfiltered history; rng selects the period.
func FormatSummary(records []core.Transaction, rng *core.DateRange, currency string) string {
	d := Deps{Currency: currency}
	if len(records) == 0 {
		return "No tienes transacciones registradas todavía."
	}
	if rng == nil {
		return "No pude entender el rango de fechas para el resumen. Por favor, intenta de nuevo."
	}

	title := rangeTitle(*rng, "para el día")
	s := core.Summarize(records, *rng)
	if s.Records == 0 {
		return fmt.Sprintf("No se encontraron transacciones en el período %s.", title)
	}

	lines := []string{
		"📊 Resumen de Finanzas " + title,
		"-----------------------------------",
		"💸 Total Ingresado: " + d.amount(s.TotalEarned),
		"💰 Total Gastado: " + d.amount(s.TotalSpent),
		"⚖️ Balance Final: " + d.amount(s.Balance) + "\n",
	}

	if len(s.Income) > 0 {
		lines = append(lines, "Detalle de Ingresos:")
		for _, g := range s.Income {
			lines = append(lines, fmt.Sprintf("  - %s: %s", core.Title(g.Name), d.amount(g.Amount)))
		}
		lines = append(lines, "")
	}

	if len(s.Expenses) > 0 {
		lines = append(lines, "Detalle de Gastos por Categoría:")
		for _, g := range s.Expenses {
			lines = append(lines, fmt.Sprintf("  - %s: %s", core.Title(g.Name), d.amount(g.Amount)))
		}
	} else {
		lines = append(lines, "No se registraron gastos en este período.")
	}
	return strings.Join(lines, "\n")
}
