package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/asesoriaprevencion/crm-api/internal/domain/entity"
	"github.com/asesoriaprevencion/crm-api/internal/domain/pipeline"
)

// OpportunityFilter filtros del listado de oportunidades. Ceros/vacíos no filtran.
type OpportunityFilter struct {
	PipelineStage    pipeline.Stage
	RecommendedPhase string
	Segment          string
	CompanyID        int64
	OwnerID          int64
}

// OpportunityRepository define el puerto de persistencia para Opportunity.
type OpportunityRepository interface {
	Create(ctx context.Context, opp *entity.Opportunity) error
	// GetByID devuelve (nil, nil) si no existe.
	GetByID(ctx context.Context, id int64) (*entity.Opportunity, error)
	// GetByIDForUpdate igual que GetByID pero bloquea la fila hasta el fin de la transacción.
	GetByIDForUpdate(ctx context.Context, id int64) (*entity.Opportunity, error)
	Update(ctx context.Context, opp *entity.Opportunity) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter OpportunityFilter, limit, offset int) ([]*entity.Opportunity, error)
	Count(ctx context.Context, filter OpportunityFilter) (int, error)
	// CountBy agrupa por "pipeline_stage" o "recommended_phase".
	CountBy(ctx context.Context, field string) ([]GroupCount, error)
	// SumEstimatedAmount suma estimated_amount_clp excluyendo las etapas indicadas.
	SumEstimatedAmount(ctx context.Context, exclude ...pipeline.Stage) (decimal.Decimal, error)
}
