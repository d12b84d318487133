package ports

import (
	"context"
	"time"

	"github.com/asesoriaprevencion/crm-api/internal/domain/pipeline"
)

// StageChange describe un cambio de etapa ya persistido.
type StageChange struct {
	OpportunityID   int64
	OpportunityCode string
	From            pipeline.Stage
	To              pipeline.Stage
	Backward        bool
	Note            string // nota libre enviada con el cambio; no se persiste en la oportunidad
	ChangedAt       time.Time
}

// StageChangeRecorder recibe los cambios de etapa para auditoría externa.
// Un error del recorder no revierte el cambio de etapa.
type StageChangeRecorder interface {
	RecordStageChange(ctx context.Context, change StageChange) error
}
