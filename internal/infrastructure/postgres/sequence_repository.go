package postgres

import (
	"context"
	"fmt"

	"github.com/asesoriaprevencion/crm-api/internal/domain/entity"
	"github.com/asesoriaprevencion/crm-api/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// sequenceSources tabla de la que se arranca cada familia cuando aún no tiene fila en code_sequences.
var sequenceSources = map[string]string{
	entity.CompanyCodePrefix:     "companies",
	entity.OpportunityCodePrefix: "opportunities",
}

// SequenceRepo último código emitido por familia, sobre la tabla code_sequences.
// Debe construirse con una pgx.Tx: el bloqueo dura hasta el commit.
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el adaptador sobre una transacción.
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// LockLastCode crea la fila de la familia si no existe y la bloquea (FOR UPDATE).
// Si la fila no tiene código se toma el de la entidad más reciente por id.
func (r *SequenceRepo) LockLastCode(ctx context.Context, prefix string) (string, error) {
	_, err := r.q.Exec(ctx,
		`INSERT INTO code_sequences (prefix) VALUES ($1) ON CONFLICT (prefix) DO NOTHING`, prefix)
	if err != nil {
		return "", fmt.Errorf("init sequence %s: %w", prefix, err)
	}

	var last *string
	err = r.q.QueryRow(ctx,
		`SELECT last_code FROM code_sequences WHERE prefix = $1 FOR UPDATE`, prefix).Scan(&last)
	if err != nil {
		return "", fmt.Errorf("lock sequence %s: %w", prefix, err)
	}
	if last != nil {
		return *last, nil
	}

	table, ok := sequenceSources[prefix]
	if !ok {
		return "", nil
	}
	var code string
	err = r.q.QueryRow(ctx, `SELECT code FROM `+table+` ORDER BY id DESC LIMIT 1`).Scan(&code)
	if err != nil {
		if isNoRows(err) {
			return "", nil
		}
		return "", fmt.Errorf("bootstrap sequence %s: %w", prefix, err)
	}
	return code, nil
}

// SaveLastCode guarda el código recién emitido.
func (r *SequenceRepo) SaveLastCode(ctx context.Context, prefix, code string) error {
	_, err := r.q.Exec(ctx,
		`UPDATE code_sequences SET last_code = $2, updated_at = now() WHERE prefix = $1`, prefix, code)
	if err != nil {
		return fmt.Errorf("save sequence %s: %w", prefix, err)
	}
	return nil
}
