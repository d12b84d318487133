// Package audit registra los cambios de etapa de las oportunidades.
package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/asesoriaprevencion/crm-api/internal/application/ports"
)

var _ ports.StageChangeRecorder = (*ZerologRecorder)(nil)

// ZerologRecorder escribe cada cambio de etapa como un evento de log estructurado
// con un event_id único, para poder correlacionarlo en el agregador de logs.
type ZerologRecorder struct {
	log   zerolog.Logger
	newID func() string
}

// NewZerologRecorder construye el recorder.
func NewZerologRecorder(log zerolog.Logger) *ZerologRecorder {
	return &ZerologRecorder{
		log:   log.With().Str("component", "audit").Logger(),
		newID: uuid.NewString,
	}
}

// RecordStageChange emite el evento "stage_change".
func (r *ZerologRecorder) RecordStageChange(_ context.Context, c ports.StageChange) error {
	ev := r.log.Info().
		Str("event", "stage_change").
		Str("event_id", r.newID()).
		Int64("opportunity_id", c.OpportunityID).
		Str("opportunity_code", c.OpportunityCode).
		Str("from", c.From.String()).
		Str("to", c.To.String()).
		Bool("backward", c.Backward).
		Time("changed_at", c.ChangedAt)
	if c.Note != "" {
		ev = ev.Str("note", c.Note)
	}
	ev.Msg("cambio de etapa")
	return nil
}
