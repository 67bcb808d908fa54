package bot

import "finbot/internal/core"

const helpText = `*¡Hola! Soy tu asistente de finanzas. Esto es todo lo que puedo hacer por vos:*

*1. Registrar Transacciones (Texto o Voz)*
- ` + "`gaste 5000 en cafe y 12000 en el super`" + `
- ` + "`cobre 150000 de mi sueldo`" + `

*2. Consultar Resúmenes*
- ` + "`resumen de esta semana`" + `
- ` + "`resumen del mes pasado`" + `

*3. Gestionar Presupuestos*
- ` + "`fijar presupuesto de 80000 para alimentos`" + `
- ` + "`cuanto me queda para salidas?`" + `

*4. Consultas Detalladas*
- ` + "`cuales fueron mis gastos en auto este mes?`" + `
- ` + "`mostrame los gastos de ropa y ocio de la semana pasada`" + `

*5. Personalizar Categorías*
- ` + "`agrega la categoria Gimnasio`" + `
- ` + "`añade las categorias Inversiones y Viajes`" + `

_Puedes usar texto o mensajes de voz para la mayoría de los comandos._`

const fallbackText = "😕 No entendí tu mensaje.\n\n" +
	"Recuerda que puedes registrar gastos, ingresos o pedir resúmenes.\n\n" +
	"*Por ejemplo, puedes intentar con:*\n" +
	"- `gaste 1500 en un cafe`\n" +
	"- `resumen de hoy`\n" +
	"- `cuanto me queda para alimentos?`"

var (
	helpButton     = core.Button{Text: "📊 Pedir Resumen de Hoy", Data: "resumen de hoy"}
	fallbackButton = core.Button{Text: "❓ Ver todos los comandos", Data: "ayuda"}
)
