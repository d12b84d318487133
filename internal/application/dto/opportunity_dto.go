package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateOpportunityRequest entrada para crear una oportunidad.
// Sin pipeline_stage se usa PROSPECCION; sin probability_percent se infiere de la etapa.
type CreateOpportunityRequest struct {
	Title              string           `json:"title" validate:"required,max=255"`
	Description        string           `json:"description"`
	CompanyID          int64            `json:"company_id" validate:"required"`
	Origin             string           `json:"origin"`
	Segment            string           `json:"segment"`
	RecommendedPhase   string           `json:"recommended_phase"`
	PipelineStage      string           `json:"pipeline_stage"`
	ProbabilityPercent *int             `json:"probability_percent" validate:"omitempty,min=0,max=100"`
	EstimatedAmountCLP *decimal.Decimal `json:"estimated_amount_clp"`
	OwnerID            *int64           `json:"owner_id"`
}

// UpdateOpportunityRequest parche genérico. pipeline_stage se aplica sin pasar por la
// política de etapas; para transiciones usar UpdateStageRequest.
type UpdateOpportunityRequest struct {
	Title              *string          `json:"title"`
	Description        *string          `json:"description"`
	CompanyID          *int64           `json:"company_id"`
	Origin             *string          `json:"origin"`
	Segment            *string          `json:"segment"`
	RecommendedPhase   *string          `json:"recommended_phase"`
	PipelineStage      *string          `json:"pipeline_stage"`
	ProbabilityPercent *int             `json:"probability_percent"`
	EstimatedAmountCLP *decimal.Decimal `json:"estimated_amount_clp"`
	OwnerID            *int64           `json:"owner_id"`
	ProposalSentAt     *string          `json:"proposal_sent_at"`
	ExpectedCloseDate  *string          `json:"expected_close_date"`
	LostReason         *string          `json:"lost_reason"` // precio, sin_presupuesto, postergado, otro
}

// UpdateStageRequest cambio de etapa del pipeline.
type UpdateStageRequest struct {
	PipelineStage string `json:"pipeline_stage" validate:"required"`
	Note          string `json:"note"`
}

// OpportunityQuery filtros y paginación del listado de oportunidades.
type OpportunityQuery struct {
	PageRequest
	PipelineStage    string `query:"pipeline_stage"`
	RecommendedPhase string `query:"recommended_phase"`
	Segment          string `query:"segment"`
	CompanyID        int64  `query:"company_id"`
	OwnerID          int64  `query:"owner_id"`
}

// OpportunityResponse oportunidad con resumen de empresa y responsable.
type OpportunityResponse struct {
	ID                 int64                `json:"id"`
	Code               string               `json:"code"`
	Title              string               `json:"title"`
	Description        string               `json:"description,omitempty"`
	CompanyID          int64                `json:"company_id"`
	Origin             string               `json:"origin,omitempty"`
	Segment            string               `json:"segment,omitempty"`
	RecommendedPhase   string               `json:"recommended_phase,omitempty"`
	PipelineStage      string               `json:"pipeline_stage"`
	ProbabilityPercent int                  `json:"probability_percent"`
	EstimatedAmountCLP decimal.Decimal      `json:"estimated_amount_clp"`
	ProposalSentAt     *time.Time           `json:"proposal_sent_at,omitempty"`
	ExpectedCloseDate  *time.Time           `json:"expected_close_date,omitempty"`
	ClosedAt           *time.Time           `json:"closed_at,omitempty"`
	LostReason         string               `json:"lost_reason,omitempty"`
	OwnerID            *int64               `json:"owner_id,omitempty"`
	Company            *CompanySummary      `json:"company,omitempty"`
	Owner              *UserSummaryResponse `json:"owner,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// OpportunityBrief fila corta usada en el detalle de empresa.
type OpportunityBrief struct {
	ID                 int64           `json:"id"`
	Code               string          `json:"code"`
	Title              string          `json:"title"`
	PipelineStage      string          `json:"pipeline_stage"`
	EstimatedAmountCLP decimal.Decimal `json:"estimated_amount_clp"`
}

// OpportunityListResponse lista paginada de oportunidades.
type OpportunityListResponse struct {
	Data []OpportunityResponse `json:"data"`
	Meta PageMeta              `json:"meta"`
}

// OpportunityStats resumen del pipeline. TotalEstimatedValue excluye CIERRE_P.
type OpportunityStats struct {
	Total               int             `json:"total"`
	ByStage             []GroupCountDTO `json:"by_stage"`
	ByPhase             []GroupCountDTO `json:"by_phase"`
	TotalEstimatedValue decimal.Decimal `json:"total_estimated_value"`
}
