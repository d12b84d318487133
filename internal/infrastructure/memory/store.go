// Package memory implementa los puertos de persistencia en memoria.
// Se usa con DB_DRIVER=memory para desarrollo local y como doble en los tests de casos de uso.
package memory

import (
	"context"
	"sync"

	"github.com/asesoriaprevencion/crm-api/internal/application/usecase"
	"github.com/asesoriaprevencion/crm-api/internal/domain/entity"
)

var _ usecase.TxRunner = (*Store)(nil)

// Store guarda empresas, oportunidades, usuarios y secuencias.
// Run toma txMu durante todo el callback: dos transacciones nunca se intercalan,
// así que leer-calcular-guardar la secuencia es atómico.
type Store struct {
	txMu sync.Mutex   // serializa Run
	mu   sync.RWMutex // protege los mapas en cada operación

	companies     map[int64]*entity.Company
	opportunities map[int64]*entity.Opportunity
	users         map[int64]*entity.UserSummary
	sequences     map[string]string

	nextCompanyID     int64
	nextOpportunityID int64
	nextUserID        int64
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		companies:     make(map[int64]*entity.Company),
		opportunities: make(map[int64]*entity.Opportunity),
		users:         make(map[int64]*entity.UserSummary),
		sequences:     make(map[string]string),
	}
}

// Companies repositorio de empresas sobre el store.
func (s *Store) Companies() *CompanyRepo { return &CompanyRepo{s: s} }

// Opportunities repositorio de oportunidades sobre el store.
func (s *Store) Opportunities() *OpportunityRepo { return &OpportunityRepo{s: s} }

// Users repositorio de usuarios sobre el store.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// Sequences repositorio de secuencias sobre el store.
func (s *Store) Sequences() *SequenceRepo { return &SequenceRepo{s: s} }

// Run ejecuta fn en exclusión mutua. Los repositorios de la transacción anotan
// el valor previo de cada clave que modifican; si fn falla se revierten solo esas
// claves, de modo que las escrituras hechas fuera de Run no se pierden.
// Los IDs consumidos no se devuelven, igual que una secuencia serial de PostgreSQL.
func (s *Store) Run(ctx context.Context, fn func(repos usecase.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	undo := newUndoLog()
	err := fn(usecase.TxRepos{
		Companies:     &CompanyRepo{s: s, undo: undo},
		Opportunities: &OpportunityRepo{s: s, undo: undo},
		Sequences:     &SequenceRepo{s: s, undo: undo},
	})
	if err != nil {
		s.rollback(undo)
		return err
	}
	return nil
}

// undoLog valor previo (nil = no existía) de cada clave escrita en una transacción.
// Solo se registra la primera escritura de cada clave. Se usa con mu tomado.
type undoLog struct {
	companies     map[int64]*entity.Company
	opportunities map[int64]*entity.Opportunity
	sequences     map[string]*string
}

func newUndoLog() *undoLog {
	return &undoLog{
		companies:     make(map[int64]*entity.Company),
		opportunities: make(map[int64]*entity.Opportunity),
		sequences:     make(map[string]*string),
	}
}

// Los métodos aceptan receptor nil: los repositorios fuera de Run no anotan nada.

func (u *undoLog) company(s *Store, id int64) {
	if u == nil {
		return
	}
	if _, seen := u.companies[id]; !seen {
		u.companies[id] = s.companies[id]
	}
}

func (u *undoLog) opportunity(s *Store, id int64) {
	if u == nil {
		return
	}
	if _, seen := u.opportunities[id]; !seen {
		u.opportunities[id] = s.opportunities[id]
	}
}

func (u *undoLog) sequence(s *Store, prefix string) {
	if u == nil {
		return
	}
	if _, seen := u.sequences[prefix]; seen {
		return
	}
	if last, ok := s.sequences[prefix]; ok {
		u.sequences[prefix] = &last
	} else {
		u.sequences[prefix] = nil
	}
}

// rollback restaura las claves anotadas. Los valores guardados nunca se mutan
// en el lugar (siempre se reemplazan por copias), así que el puntero previo es válido.
func (s *Store) rollback(u *undoLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, prev := range u.companies {
		if prev == nil {
			delete(s.companies, id)
		} else {
			s.companies[id] = prev
		}
	}
	for id, prev := range u.opportunities {
		if prev == nil {
			delete(s.opportunities, id)
		} else {
			s.opportunities[id] = prev
		}
	}
	for prefix, prev := range u.sequences {
		if prev == nil {
			delete(s.sequences, prefix)
		} else {
			s.sequences[prefix] = *prev
		}
	}
}
