package pdf_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asesoriaprevencion/crm-api/internal/application/dto"
	"github.com/asesoriaprevencion/crm-api/internal/infrastructure/pdf"
)

func TestRenderPipelineReport_GeneraPDF(t *testing.T) {
	g := pdf.NewPipelineReportGenerator()
	summary := &dto.PipelineSummary{
		GeneratedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Companies: dto.CompanyStats{
			Total:     3,
			ByStatus:  []dto.GroupCountDTO{{Key: "ACTIVE", Count: 2}, {Key: "CLOSED", Count: 1}},
			BySegment: []dto.GroupCountDTO{{Key: "PYME", Count: 3}},
		},
		Opportunities: dto.OpportunityStats{
			Total:               4,
			ByStage:             []dto.GroupCountDTO{{Key: "PROPUESTA", Count: 2}, {Key: "CIERRE_G", Count: 1}, {Key: "CIERRE_P", Count: 1}},
			TotalEstimatedValue: decimal.NewFromInt(12500000),
		},
		WonCount:       1,
		LostCount:      1,
		OpenCount:      2,
		WinRatePercent: decimal.NewFromInt(50),
	}

	out, err := g.RenderPipelineReport(context.Background(), summary)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "debe ser un documento PDF")
}

func TestRenderPipelineReport_SinDatos(t *testing.T) {
	g := pdf.NewPipelineReportGenerator()

	out, err := g.RenderPipelineReport(context.Background(), &dto.PipelineSummary{GeneratedAt: time.Now()})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestRenderPipelineReport_ResumenNil(t *testing.T) {
	_, err := pdf.NewPipelineReportGenerator().RenderPipelineReport(context.Background(), nil)
	assert.Error(t, err)
}
