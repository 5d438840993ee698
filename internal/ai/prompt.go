package ai

import (
	"fmt"
	"strings"

	"github.com/steveyegge/triage/internal/types"
)

// rubric describes the work each department takes. It is the only place the
// routing policy lives: IT problems go to support, personnel matters to human
// resources, and anything external or strategic to operations.
var rubric = []struct {
	label string
	scope string
}{
	{
		label: types.DepartmentSupport,
		scope: "problemas con ordenadores, portátiles, redes, correo electrónico, software, " +
			"herramientas digitales, dispositivos tecnológicos, acceso a internet, sistemas o impresoras.",
	},
	{
		label: types.DepartmentHR,
		scope: "gestiona asuntos internos del personal como nóminas, vacaciones, ausencias, " +
			"contratos de empleados, bajas médicas, asistencia, permisos o conflictos laborales.",
	},
	{
		label: types.DepartmentOperations,
		scope: "se encarga de temas estratégicos y externos como problemas con clientes, contratos " +
			"con proveedores, ventas, cierres de contratos, informes empresariales, documentación " +
			"externa o relación con terceros.",
	},
}

// RubricLabels returns the labels the prompt asks the model to choose from
func RubricLabels() []string {
	labels := make([]string, len(rubric))
	for i, entry := range rubric {
		labels[i] = entry.label
	}
	return labels
}

// ClassificationPrompt builds the prompt asking the model to route ticket
func ClassificationPrompt(ticket string) string {
	var sb strings.Builder

	sb.WriteString("Clasifica el siguiente mensaje interno en uno de estos tres departamentos, ")
	sb.WriteString("basándote en las funciones reales que realiza cada uno:\n\n")
	for _, entry := range rubric {
		fmt.Fprintf(&sb, "- %s: %s\n\n", entry.label, entry.scope)
	}
	fmt.Fprintf(&sb, "Mensaje: %s\n\n", ticket)
	sb.WriteString("Responde solo con una palabra en minúsculas:\n")
	fmt.Fprintf(&sb, "%s, %s u %s.\n", rubric[0].label, rubric[1].label, rubric[2].label)

	return sb.String()
}
