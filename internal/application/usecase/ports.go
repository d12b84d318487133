package usecase

import (
	"context"

	"github.com/asesoriaprevencion/crm-api/internal/domain/repository"
)

// TxRepos repositorios atados a una misma transacción.
type TxRepos struct {
	Companies     repository.CompanyRepository
	Opportunities repository.OpportunityRepository
	Sequences     repository.SequenceRepository
}

// TxRunner ejecuta fn dentro de una transacción y hace Commit si fn no devuelve error.
// Garantiza que la emisión de códigos (leer secuencia + insertar entidad) sea atómica.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos TxRepos) error) error
}
