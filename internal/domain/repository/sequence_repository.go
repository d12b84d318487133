package repository

import "context"

// SequenceRepository guarda el último código emitido por familia (prefijo).
// Solo es seguro usarlo dentro de una transacción: LockLastCode bloquea la familia
// hasta el commit, de modo que leer-calcular-guardar sea atómico.
type SequenceRepository interface {
	// LockLastCode devuelve el último código emitido ("" si la familia está vacía).
	LockLastCode(ctx context.Context, prefix string) (string, error)
	SaveLastCode(ctx context.Context, prefix, code string) error
}
