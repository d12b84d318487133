package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/asesoriaprevencion/crm-api/internal/domain"
	"github.com/asesoriaprevencion/crm-api/internal/domain/entity"
	"github.com/asesoriaprevencion/crm-api/internal/domain/pipeline"
	"github.com/asesoriaprevencion/crm-api/internal/domain/repository"
	"github.com/asesoriaprevencion/crm-api/internal/domain/sequence"
)

var (
	_ repository.CompanyRepository     = (*CompanyRepo)(nil)
	_ repository.OpportunityRepository = (*OpportunityRepo)(nil)
	_ repository.SequenceRepository    = (*SequenceRepo)(nil)
	_ repository.UserRepository        = (*UserRepo)(nil)
)

// Las entidades se guardan y entregan como copias: modificar lo devuelto no altera el store.

// ── Empresas ────────────────────────────────────────────────────────────────

// CompanyRepo empresas en memoria.
type CompanyRepo struct {
	s    *Store
	undo *undoLog // nil fuera de Run
}

func (r *CompanyRepo) Create(_ context.Context, c *entity.Company) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.rutTaken(c.RUT, 0); err != nil {
		return err
	}
	r.s.nextCompanyID++
	c.ID = r.s.nextCompanyID
	r.undo.company(r.s, c.ID)
	cp := *c
	r.s.companies[c.ID] = &cp
	return nil
}

func (r *CompanyRepo) GetByID(_ context.Context, id int64) (*entity.Company, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.companies[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *CompanyRepo) GetByRUT(_ context.Context, rut string) (*entity.Company, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.companies {
		if c.RUT != nil && *c.RUT == rut {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *CompanyRepo) Update(_ context.Context, c *entity.Company) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.companies[c.ID]; !ok {
		return fmt.Errorf("%w: empresa con ID %d no encontrada", domain.ErrNotFound, c.ID)
	}
	if err := r.rutTaken(c.RUT, c.ID); err != nil {
		return err
	}
	r.undo.company(r.s, c.ID)
	cp := *c
	r.s.companies[c.ID] = &cp
	return nil
}

// rutTaken emula el índice único parcial sobre rut. Llamar con mu tomado.
func (r *CompanyRepo) rutTaken(rut *string, self int64) error {
	if rut == nil {
		return nil
	}
	for id, c := range r.s.companies {
		if id != self && c.RUT != nil && *c.RUT == *rut {
			return fmt.Errorf("%w: RUT %s ya registrado", domain.ErrConflict, *rut)
		}
	}
	return nil
}

func (r *CompanyRepo) List(_ context.Context, f repository.CompanyFilter, limit, offset int) ([]*entity.Company, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return page(r.filtered(f), limit, offset), nil
}

func (r *CompanyRepo) Count(_ context.Context, f repository.CompanyFilter) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.filtered(f)), nil
}

func (r *CompanyRepo) CountBy(_ context.Context, field string) ([]repository.GroupCount, error) {
	var key func(*entity.Company) string
	switch field {
	case "status":
		key = func(c *entity.Company) string { return c.Status }
	case "segment":
		key = func(c *entity.Company) string { return c.Segment }
	case "current_phase":
		key = func(c *entity.Company) string { return c.CurrentPhase }
	default:
		return nil, fmt.Errorf("%w: no se puede agrupar empresas por %q", domain.ErrInvalidInput, field)
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	counts := make(map[string]int)
	for _, c := range r.s.companies {
		counts[key(c)]++
	}
	return groupCounts(counts), nil
}

// filtered devuelve copias ordenadas por creación desc. Llamar con mu tomado.
func (r *CompanyRepo) filtered(f repository.CompanyFilter) []*entity.Company {
	search := strings.ToLower(f.Search)
	out := make([]*entity.Company, 0)
	for _, c := range r.s.companies {
		if search != "" &&
			!strings.Contains(strings.ToLower(c.BusinessName), search) &&
			!strings.Contains(strings.ToLower(c.TradeName), search) &&
			(c.RUT == nil || !strings.Contains(strings.ToLower(*c.RUT), search)) {
			continue
		}
		if f.Segment != "" && c.Segment != f.Segment {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.Region != "" && c.Region != f.Region {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// ── Oportunidades ───────────────────────────────────────────────────────────

// OpportunityRepo oportunidades en memoria.
type OpportunityRepo struct {
	s    *Store
	undo *undoLog
}

func (r *OpportunityRepo) Create(_ context.Context, o *entity.Opportunity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.companies[o.CompanyID]; !ok {
		return fmt.Errorf("%w: empresa con ID %d no encontrada", domain.ErrNotFound, o.CompanyID)
	}
	r.s.nextOpportunityID++
	o.ID = r.s.nextOpportunityID
	r.undo.opportunity(r.s, o.ID)
	cp := *o
	r.s.opportunities[o.ID] = &cp
	return nil
}

func (r *OpportunityRepo) GetByID(_ context.Context, id int64) (*entity.Opportunity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.opportunities[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

// GetByIDForUpdate equivale a GetByID: dentro de Run el store ya está en exclusión mutua.
func (r *OpportunityRepo) GetByIDForUpdate(ctx context.Context, id int64) (*entity.Opportunity, error) {
	return r.GetByID(ctx, id)
}

func (r *OpportunityRepo) Update(_ context.Context, o *entity.Opportunity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.opportunities[o.ID]; !ok {
		return fmt.Errorf("%w: oportunidad con ID %d no encontrada", domain.ErrNotFound, o.ID)
	}
	r.undo.opportunity(r.s, o.ID)
	cp := *o
	r.s.opportunities[o.ID] = &cp
	return nil
}

func (r *OpportunityRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.opportunities[id]; !ok {
		return fmt.Errorf("%w: oportunidad con ID %d no encontrada", domain.ErrNotFound, id)
	}
	r.undo.opportunity(r.s, id)
	delete(r.s.opportunities, id)
	return nil
}

func (r *OpportunityRepo) List(_ context.Context, f repository.OpportunityFilter, limit, offset int) ([]*entity.Opportunity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return page(r.filtered(f), limit, offset), nil
}

func (r *OpportunityRepo) Count(_ context.Context, f repository.OpportunityFilter) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.filtered(f)), nil
}

func (r *OpportunityRepo) CountBy(_ context.Context, field string) ([]repository.GroupCount, error) {
	var key func(*entity.Opportunity) string
	switch field {
	case "pipeline_stage":
		key = func(o *entity.Opportunity) string { return string(o.PipelineStage) }
	case "recommended_phase":
		key = func(o *entity.Opportunity) string { return o.RecommendedPhase }
	default:
		return nil, fmt.Errorf("%w: no se puede agrupar oportunidades por %q", domain.ErrInvalidInput, field)
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	counts := make(map[string]int)
	for _, o := range r.s.opportunities {
		counts[key(o)]++
	}
	return groupCounts(counts), nil
}

func (r *OpportunityRepo) SumEstimatedAmount(_ context.Context, exclude ...pipeline.Stage) (decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	skip := make(map[pipeline.Stage]bool, len(exclude))
	for _, s := range exclude {
		skip[s] = true
	}
	total := decimal.Zero
	for _, o := range r.s.opportunities {
		if !skip[o.PipelineStage] {
			total = total.Add(o.EstimatedAmountCLP)
		}
	}
	return total, nil
}

func (r *OpportunityRepo) filtered(f repository.OpportunityFilter) []*entity.Opportunity {
	out := make([]*entity.Opportunity, 0)
	for _, o := range r.s.opportunities {
		if f.PipelineStage != "" && o.PipelineStage != f.PipelineStage {
			continue
		}
		if f.RecommendedPhase != "" && o.RecommendedPhase != f.RecommendedPhase {
			continue
		}
		if f.Segment != "" && o.Segment != f.Segment {
			continue
		}
		if f.CompanyID != 0 && o.CompanyID != f.CompanyID {
			continue
		}
		if f.OwnerID != 0 && (o.OwnerID == nil || *o.OwnerID != f.OwnerID) {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// ── Secuencias ──────────────────────────────────────────────────────────────

// SequenceRepo último código por familia. La exclusión la da Store.Run.
type SequenceRepo struct {
	s    *Store
	undo *undoLog
}

// LockLastCode si la familia no tiene código guardado arranca desde la entidad de mayor id.
func (r *SequenceRepo) LockLastCode(_ context.Context, prefix string) (string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if last, ok := r.s.sequences[prefix]; ok {
		return last, nil
	}
	var (
		maxID int64
		code  string
	)
	switch prefix {
	case entity.CompanyCodePrefix:
		for id, c := range r.s.companies {
			if id > maxID {
				maxID, code = id, c.Code
			}
		}
	case entity.OpportunityCodePrefix:
		for id, o := range r.s.opportunities {
			if id > maxID {
				maxID, code = id, o.Code
			}
		}
	}
	return code, nil
}

func (r *SequenceRepo) SaveLastCode(_ context.Context, prefix, code string) error {
	if !strings.HasPrefix(code, prefix+"-") || sequence.Suffix(code) == 0 {
		return fmt.Errorf("%w: código %q no pertenece a la familia %s", domain.ErrInvalidInput, code, prefix)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.undo.sequence(r.s, prefix)
	r.s.sequences[prefix] = code
	return nil
}

// ── Usuarios ────────────────────────────────────────────────────────────────

// UserRepo usuarios en memoria.
type UserRepo struct{ s *Store }

// Create agrega un usuario y completa su ID.
func (r *UserRepo) Create(_ context.Context, u *entity.UserSummary) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return fmt.Errorf("%w: email %s ya registrado", domain.ErrConflict, u.Email)
		}
	}
	r.s.nextUserID++
	u.ID = r.s.nextUserID
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *UserRepo) GetSummary(_ context.Context, id int64) (*entity.UserSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.UserSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// ── Helpers ─────────────────────────────────────────────────────────────────

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func groupCounts(counts map[string]int) []repository.GroupCount {
	out := make([]repository.GroupCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, repository.GroupCount{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}
