package ports

import (
	"context"

	"github.com/asesoriaprevencion/crm-api/internal/application/dto"
)

// PipelineReportRenderer genera la representación imprimible del resumen del pipeline.
type PipelineReportRenderer interface {
	RenderPipelineReport(ctx context.Context, summary *dto.PipelineSummary) ([]byte, error)
}
