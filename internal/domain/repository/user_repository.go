package repository

import (
	"context"

	"github.com/asesoriaprevencion/crm-api/internal/domain/entity"
)

// UserRepository lectura de usuarios para resolver responsables. (nil, nil) si no existe.
type UserRepository interface {
	GetSummary(ctx context.Context, id int64) (*entity.UserSummary, error)
}
