package usecase

import (
	"context"
	"fmt"

	"github.com/asesoriaprevencion/crm-api/internal/domain/repository"
	"github.com/asesoriaprevencion/crm-api/internal/domain/sequence"
)

// allocateCode emite el siguiente código de la familia prefix.
// Debe llamarse dentro de TxRunner.Run: LockLastCode serializa a los escritores concurrentes.
func allocateCode(ctx context.Context, seq repository.SequenceRepository, prefix string) (string, error) {
	last, err := seq.LockLastCode(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("leer secuencia %s: %w", prefix, err)
	}
	code := sequence.Next(prefix, last)
	if err := seq.SaveLastCode(ctx, prefix, code); err != nil {
		return "", fmt.Errorf("guardar secuencia %s: %w", prefix, err)
	}
	return code, nil
}
