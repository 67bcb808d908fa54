package extract

import (
	"fmt"
	"strings"

	"finbot/internal/core"
)

func expensesPrompt(text string, valid []string) string {
	categories := core.NormalizeCategories(valid)
	return fmt.Sprintf(`Analiza el siguiente texto y extrae todos los gastos que encuentres.
Responde ÚNICAMENTE con un array de objetos JSON.

REGLAS IMPORTANTES:
1. El formato de cada objeto DEBE ser EXACTAMENTE: {"amount": <numero>, "category": "<categoria>", "description": "<descripcion>"}.
2. La clave "description" DEBE contener el detalle del gasto (ej: "supermercado", "cafe con amigos").
3. Para la clave "category", DEBES elegir uno de los siguientes valores: [%s]. Si no encaja, usa "%s".
4. NO inventes claves nuevas como "currency" o "establishment".

EJEMPLOS:
- Texto: "fui al super y gaste 12000" -> [{"amount": 12000, "category": "alimentos", "description": "supermercado"}]
- Texto: "2500 en un cafe con medialunas" -> [{"amount": 2500, "category": "salidas", "description": "cafe con medialunas"}]
- Texto: "cargué nafta por 15000 y 3000 de un peaje" -> [{"amount": 15000, "category": "auto", "description": "nafta"}, {"amount": 3000, "category": "auto", "description": "peaje"}]

Texto a analizar: %q
`, strings.Join(categories, ", "), core.FallbackCategory, text)
}

func incomePrompt(text string) string {
	return fmt.Sprintf(`Analiza el siguiente texto y extrae el monto y la descripción del ingreso.
Responde ÚNICAMENTE con un objeto JSON con las claves "amount" y "description".

Ejemplos:
- Texto: "cargué 150000 de mi sueldo" -> {"amount": 150000, "description": "sueldo"}
- Texto: "me pagaron 20000 por el proyecto freelance" -> {"amount": 20000, "description": "proyecto freelance"}

Texto a analizar: %q
`, text)
}

func budgetPrompt(text string) string {
	return fmt.Sprintf(`Analiza el siguiente texto y extrae la categoría y el monto para un presupuesto.
Responde ÚNICAMENTE con un objeto JSON con las claves "category" y "amount".
La categoría debe estar en minúsculas.

Ejemplos:
- Texto: "Quiero fijar un presupuesto de 50000 para Alimentos" -> {"category": "alimentos", "amount": 50000}
- Texto: "presupuesto para salidas: 25000" -> {"category": "salidas", "amount": 25000}
- Texto: "Setea 10000 en Ocio" -> {"category": "ocio", "amount": 10000}

Texto a analizar: %q
`, text)
}

func categoryNamesPrompt(text string) string {
	return fmt.Sprintf(`Analiza el siguiente texto y extrae los nombres de todas las categorías nuevas que el usuario quiere agregar.
Responde ÚNICAMENTE con un objeto JSON con la clave "category_names", que debe ser un array de strings.

Ejemplos:
- Texto: "Quiero agregar la categoría Viajes" -> {"category_names": ["Viajes"]}
- Texto: "agregar Mascotas y Gimnasio a mis categorías" -> {"category_names": ["Mascotas", "Gimnasio"]}
- Texto: "nuevas categorias: Inversiones, Salud y Educación" -> {"category_names": ["Inversiones", "Salud", "Educación"]}

Texto a analizar: %q
`, text)
}
