package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/asesoriaprevencion/crm-api/internal/application/dto"
	"github.com/asesoriaprevencion/crm-api/internal/application/ports"
	"github.com/asesoriaprevencion/crm-api/internal/domain/pipeline"
)

// CompanyStatsSource fuente de estadísticas de empresas (CompanyUseCase).
type CompanyStatsSource interface {
	Stats(ctx context.Context) (*dto.CompanyStats, error)
}

// OpportunityStatsSource fuente de estadísticas de oportunidades (OpportunityUseCase).
type OpportunityStatsSource interface {
	Stats(ctx context.Context) (*dto.OpportunityStats, error)
}

// ReportUseCase resumen del pipeline comercial para la dirección.
type ReportUseCase struct {
	companies     CompanyStatsSource
	opportunities OpportunityStatsSource
	renderer      ports.PipelineReportRenderer
}

// NewReportUseCase construye el caso de uso. renderer puede ser nil si no se exporta PDF.
func NewReportUseCase(companies CompanyStatsSource, opportunities OpportunityStatsSource, renderer ports.PipelineReportRenderer) *ReportUseCase {
	return &ReportUseCase{companies: companies, opportunities: opportunities, renderer: renderer}
}

// PipelineSummary consulta ambas estadísticas en paralelo y deriva ganadas, perdidas,
// abiertas y la tasa de cierre.
func (uc *ReportUseCase) PipelineSummary(ctx context.Context) (*dto.PipelineSummary, error) {
	// ── Goroutines para paralelizar las 2 consultas ───────────────────────────
	type companyResult struct {
		stats *dto.CompanyStats
		err   error
	}
	type opportunityResult struct {
		stats *dto.OpportunityStats
		err   error
	}

	companyCh := make(chan companyResult, 1)
	oppCh := make(chan opportunityResult, 1)

	go func() {
		s, err := uc.companies.Stats(ctx)
		companyCh <- companyResult{s, err}
	}()
	go func() {
		s, err := uc.opportunities.Stats(ctx)
		oppCh <- opportunityResult{s, err}
	}()

	companies := <-companyCh
	opps := <-oppCh

	if companies.err != nil {
		return nil, fmt.Errorf("reporte: empresas: %w", companies.err)
	}
	if opps.err != nil {
		return nil, fmt.Errorf("reporte: oportunidades: %w", opps.err)
	}

	// ── Derivados por etapa ───────────────────────────────────────────────────
	var won, lost int
	for _, g := range opps.stats.ByStage {
		switch pipeline.Stage(g.Key) {
		case pipeline.CierreG:
			won += g.Count
		case pipeline.CierreP:
			lost += g.Count
		}
	}
	return &dto.PipelineSummary{
		GeneratedAt:    time.Now(),
		Companies:      *companies.stats,
		Opportunities:  *opps.stats,
		WonCount:       won,
		LostCount:      lost,
		OpenCount:      opps.stats.Total - won - lost,
		WinRatePercent: winRate(won, lost),
	}, nil
}

// PipelinePDF genera el resumen del pipeline en PDF.
func (uc *ReportUseCase) PipelinePDF(ctx context.Context) ([]byte, error) {
	if uc.renderer == nil {
		return nil, fmt.Errorf("reporte: sin generador de PDF configurado")
	}
	summary, err := uc.PipelineSummary(ctx)
	if err != nil {
		return nil, err
	}
	pdf, err := uc.renderer.RenderPipelineReport(ctx, summary)
	if err != nil {
		return nil, fmt.Errorf("reporte: generar PDF: %w", err)
	}
	return pdf, nil
}

// winRate ganadas / (ganadas + perdidas) * 100, redondeado a 2 decimales. Cero si no hay cierres.
func winRate(won, lost int) decimal.Decimal {
	closed := won + lost
	if closed == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(won)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(closed))).
		Round(2)
}
