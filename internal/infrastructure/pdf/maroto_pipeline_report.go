// Package pdf genera el reporte imprimible del pipeline comercial.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: título + fecha de generación                        │
//	│  KPIs: oportunidades | abiertas | ganadas | perdidas | tasa  │
//	│  VALOR DEL PIPELINE (CLP, sin CIERRE_P)                      │
//	│  TABLA: etapa | cantidad                                     │
//	│  TABLA: empresas por estado | por segmento                   │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/asesoriaprevencion/crm-api/internal/application/dto"
	"github.com/asesoriaprevencion/crm-api/internal/application/ports"
	"github.com/asesoriaprevencion/crm-api/internal/domain/pipeline"
)

var _ ports.PipelineReportRenderer = (*PipelineReportGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// PipelineReportGenerator implementa ports.PipelineReportRenderer usando Maroto v2.
type PipelineReportGenerator struct {
	printer *message.Printer // miles con punto (es-CL)
}

// NewPipelineReportGenerator construye el generador.
func NewPipelineReportGenerator() *PipelineReportGenerator {
	return &PipelineReportGenerator{printer: message.NewPrinter(language.MustParse("es-CL"))}
}

// RenderPipelineReport genera el PDF y devuelve sus bytes.
func (g *PipelineReportGenerator) RenderPipelineReport(_ context.Context, s *dto.PipelineSummary) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("pdf: resumen vacío")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reporte de Pipeline Comercial", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(s))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(g.kpiRow(s))
	m.AddRows(g.valueRow(s))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow("Etapa del pipeline", "Oportunidades"))
	m.AddRows(g.countRows(stageCounts(s.Opportunities.ByStage))...)

	m.AddRows(line.NewRow(3))
	m.AddRows(tableHeaderRow("Empresas por estado", "Cantidad"))
	m.AddRows(g.countRows(s.Companies.ByStatus)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(tableHeaderRow("Empresas por segmento", "Cantidad"))
	m.AddRows(g.countRows(s.Companies.BySegment)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func (g *PipelineReportGenerator) headerRow(s *dto.PipelineSummary) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New("PIPELINE COMERCIAL", props.Text{
				Style: fontstyle.Bold, Size: 14, Color: colorPrimary, Top: 1,
			}),
			text.New(g.printer.Sprintf("%d empresas registradas", s.Companies.Total), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("Generado: "+s.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 3, Color: colorGray,
			}),
		),
	)
}

func (g *PipelineReportGenerator) kpiRow(s *dto.PipelineSummary) core.Row {
	kpi := func(label string, value string) core.Col {
		return col.New(2).Add(
			text.New(label, props.Text{Size: 7, Align: align.Center, Color: colorGray, Top: 1}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Center, Top: 5}),
		)
	}
	return row.New(16).Add(
		col.New(1),
		kpi("Oportunidades", g.printer.Sprintf("%d", s.Opportunities.Total)),
		kpi("Abiertas", g.printer.Sprintf("%d", s.OpenCount)),
		kpi("Ganadas", g.printer.Sprintf("%d", s.WonCount)),
		kpi("Perdidas", g.printer.Sprintf("%d", s.LostCount)),
		kpi("Tasa de cierre", s.WinRatePercent.StringFixed(1)+"%"),
		col.New(1),
	)
}

func (g *PipelineReportGenerator) valueRow(s *dto.PipelineSummary) core.Row {
	return row.New(12).Add(
		col.New(6).Add(text.New("VALOR ESTIMADO DEL PIPELINE:", props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Top: 3, Right: 2,
		})),
		col.New(6).Add(text.New(g.clp(s.Opportunities.TotalEstimatedValue.IntPart()), props.Text{
			Style: fontstyle.Bold, Size: 10, Color: colorPrimary, Top: 3,
		})),
	)
}

func tableHeaderRow(left, right string) core.Row {
	return row.New(8).WithStyle(&props.Cell{BackgroundColor: colorPrimary}).Add(
		col.New(8).Add(text.New(left, props.Text{
			Style: fontstyle.Bold, Size: 8, Color: colorWhite, Top: 2, Left: 2,
		})),
		col.New(4).Add(text.New(right, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorWhite, Top: 2, Right: 2,
		})),
	)
}

func (g *PipelineReportGenerator) countRows(counts []dto.GroupCountDTO) []core.Row {
	rows := make([]core.Row, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, row.New(6).Add(
			col.New(8).Add(text.New(nonEmpty(c.Key, "(sin dato)"), props.Text{Size: 8, Top: 1, Left: 2})),
			col.New(4).Add(text.New(g.printer.Sprintf("%d", c.Count), props.Text{
				Size: 8, Align: align.Right, Top: 1, Right: 2,
			})),
		))
	}
	if len(rows) == 0 {
		rows = append(rows, row.New(6).Add(col.New(12).Add(
			text.New("Sin registros", props.Text{Size: 8, Color: colorGray, Top: 1, Left: 2}),
		)))
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

// clp formatea un monto en pesos chilenos: 1234567 → "$1.234.567".
func (g *PipelineReportGenerator) clp(n int64) string {
	return g.printer.Sprintf("$%d", n)
}

// stageCounts ordena los conteos según el orden del pipeline e incluye etapas sin oportunidades.
func stageCounts(in []dto.GroupCountDTO) []dto.GroupCountDTO {
	byKey := make(map[string]int, len(in))
	for _, c := range in {
		byKey[c.Key] = c.Count
	}
	out := make([]dto.GroupCountDTO, 0, len(pipeline.Stages()))
	for _, st := range pipeline.Stages() {
		out = append(out, dto.GroupCountDTO{Key: st.String(), Count: byKey[st.String()]})
	}
	return out
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
