package intent

import (
	"fmt"
	"strings"
	"time"

	"finbot/internal/core"
)

func buildPrompt(text string, now time.Time) string {
	today := core.DateOf(now).String()
	labels := make([]string, len(Labels))
	for i, l := range Labels {
		labels[i] = fmt.Sprintf("%q", string(l))
	}

	var b strings.Builder
	b.WriteString("Analiza el mensaje del usuario y clasifica su intención.\n")
	fmt.Fprintf(&b, "La fecha de hoy es %s.\n", today)
	b.WriteString("Responde ÚNICAMENTE con un objeto JSON de la forma {\"intent\": \"...\", \"entities\": {...}}.\n\n")
	fmt.Fprintf(&b, "Las intenciones posibles son: %s.\n\n", strings.Join(labels, ", "))

	b.WriteString("REGLAS PARA FECHAS:\n")
	b.WriteString("- Para QUERY_EXPENSE y QUERY_BY_CATEGORY extrae \"start_date\" y \"end_date\" en formato YYYY-MM-DD.\n")
	b.WriteString("- \"hoy\": ambas fechas son hoy. \"ayer\": ambas fechas son ayer.\n")
	b.WriteString("- \"este mes\": primer y último día del mes actual. \"mes pasado\": primer y último día del mes anterior.\n")
	b.WriteString("- \"últimos N días\": desde hace N días hasta hoy.\n\n")

	b.WriteString("REGLAS PARA ENTIDADES:\n")
	b.WriteString("- QUERY_BUDGET: \"category\" con el nombre de la categoría.\n")
	b.WriteString("- QUERY_BY_CATEGORY: \"categories\" con un array de nombres en minúsculas.\n\n")

	b.WriteString("Ejemplos:\n")
	examples := []struct{ msg, out string }{
		{"gaste 5000 en cafe", `{"intent": "LOG_EXPENSE", "entities": {}}`},
		{"cargué 100000 de mi sueldo", `{"intent": "LOG_INCOME", "entities": {}}`},
		{"cuanto gaste hoy?", fmt.Sprintf(`{"intent": "QUERY_EXPENSE", "entities": {"start_date": "%s", "end_date": "%s"}}`, today, today)},
		{"agrega categoria de Viajes", `{"intent": "ADD_CATEGORY", "entities": {}}`},
		{"fijar presupuesto de 20000 para Salidas", `{"intent": "SET_BUDGET", "entities": {}}`},
		{"como voy con el presupuesto de alimentos", `{"intent": "QUERY_BUDGET", "entities": {"category": "alimentos"}}`},
		{"mostrame los gastos de auto y mascotas del mes pasado", `{"intent": "QUERY_BY_CATEGORY", "entities": {"categories": ["auto", "mascotas"], "start_date": "...", "end_date": "..."}}`},
		{"ayuda", `{"intent": "SHOW_HELP", "entities": {}}`},
		{"/help", `{"intent": "SHOW_HELP", "entities": {}}`},
		{"hola", `{"intent": "OTHER", "entities": {}}`},
	}
	for _, ex := range examples {
		fmt.Fprintf(&b, "- Mensaje: %q -> %s\n", ex.msg, ex.out)
	}

	fmt.Fprintf(&b, "\nMensaje a analizar: %q\n", text)
	return b.String()
}
