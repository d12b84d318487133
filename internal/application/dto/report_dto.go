package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PipelineSummary respuesta de GET /api/reports/pipeline.
type PipelineSummary struct {
	GeneratedAt   time.Time        `json:"generated_at"`
	Companies     CompanyStats     `json:"companies"`
	Opportunities OpportunityStats `json:"opportunities"`

	// Derivados de Opportunities.ByStage
	WonCount       int             `json:"won_count"`
	LostCount      int             `json:"lost_count"`
	OpenCount      int             `json:"open_count"`
	WinRatePercent decimal.Decimal `json:"win_rate_percent"` // ganadas / (ganadas + perdidas) * 100
}
