// Package report renders the loan report as the plain-text file the
// dashboard offers for download.
package report

import (
	"fmt"
	"io"
	"text/template"
	"time"

	"Gin_postgres_redis_tool_lending/models"

	"github.com/pkg/errors"
)

const ContentType = "text/plain; charset=utf-8"

var monthsES = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// longDate formats t as "2 de enero de 2025 a las 15:04".
func longDate(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d a las %s",
		t.Day(), monthsES[t.Month()-1], t.Year(), t.Format("15:04"))
}

var tmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"longDate": longDate,
	"pct":      func(f float64) string { return fmt.Sprintf("%.1f%%", f) },
}).Parse(`REPORTE DE PRÉSTAMOS DE HERRAMIENTAS
Generado el: {{ longDate .GeneratedAt }}
Período: Últimos {{ .Days }} días

RESUMEN GENERAL:
- Total de préstamos: {{ .Total }}
- Préstamos activos: {{ .Active }}
- Préstamos devueltos: {{ .Returned }}
- Préstamos vencidos: {{ .Overdue }}

HERRAMIENTAS MÁS UTILIZADAS:
{{- range .TopItems }}
- {{ .Name }}: {{ .Loans }} préstamos
{{- else }}
- (sin datos)
{{- end }}

PRÉSTAMOS POR CARRERA:
{{- range .ByCareer }}
- {{ .Career }}: {{ .Loans }} préstamos
{{- else }}
- (sin datos)
{{- end }}

ESTADÍSTICAS MENSUALES:
- Mes actual: {{ .ThisMonth }} préstamos
- Mes anterior: {{ .LastMonth }} préstamos
- Crecimiento: {{ pct .GrowthPct }}
`))

// Render writes rep as plain text.
func Render(w io.Writer, rep *models.Report) error {
	if rep == nil {
		return errors.New("nil report")
	}
	return errors.Wrap(tmpl.Execute(w, rep), "render report")
}

// Filename is the attachment name for a report generated at t.
func Filename(t time.Time) string {
	return "reporte-prestamos-" + t.Format("2006-01-02") + ".txt"
}
