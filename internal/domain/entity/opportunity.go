package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/asesoriaprevencion/crm-api/internal/domain/pipeline"
)

// OpportunityCodePrefix prefijo de la familia de códigos de oportunidades (OPP-0001).
const OpportunityCodePrefix = "OPP"

// Opportunity representa una oportunidad comercial que avanza por el pipeline.
type Opportunity struct {
	ID                 int64
	Code               string // OPP-####, asignado al crear e inmutable
	Title              string
	Description        string
	CompanyID          int64
	Origin             string // web, referido, terreno, etc.
	Segment            string
	RecommendedPhase   string
	PipelineStage      pipeline.Stage
	ProbabilityPercent int             // 0–100
	EstimatedAmountCLP decimal.Decimal // no negativo
	ProposalSentAt     *time.Time
	ExpectedCloseDate  *time.Time
	ClosedAt           *time.Time // se marca al llegar a una etapa de cierre; nunca se limpia
	LostReason         string
	OwnerID            *int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
