package repository

import (
	"context"

	"github.com/asesoriaprevencion/crm-api/internal/domain/entity"
)

// CompanyFilter filtros del listado de empresas. Campos vacíos no filtran.
type CompanyFilter struct {
	Search  string // razón social, nombre de fantasía o RUT (contiene, sin distinguir mayúsculas)
	Segment string
	Status  string
	Region  string
}

// GroupCount conteo de filas por valor de un campo (GROUP BY).
type GroupCount struct {
	Key   string // vacío cuando el campo es NULL
	Count int
}

// CompanyRepository define el puerto de persistencia para Company.
// GetByID y GetByRUT devuelven (nil, nil) cuando no existe.
type CompanyRepository interface {
	Create(ctx context.Context, company *entity.Company) error
	GetByID(ctx context.Context, id int64) (*entity.Company, error)
	GetByRUT(ctx context.Context, rut string) (*entity.Company, error)
	Update(ctx context.Context, company *entity.Company) error
	List(ctx context.Context, filter CompanyFilter, limit, offset int) ([]*entity.Company, error)
	Count(ctx context.Context, filter CompanyFilter) (int, error)
	// CountBy agrupa por "status", "segment" o "current_phase".
	CountBy(ctx context.Context, field string) ([]GroupCount, error)
}
