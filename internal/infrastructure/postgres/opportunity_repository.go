package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/asesoriaprevencion/crm-api/internal/domain"
	"github.com/asesoriaprevencion/crm-api/internal/domain/entity"
	"github.com/asesoriaprevencion/crm-api/internal/domain/pipeline"
	"github.com/asesoriaprevencion/crm-api/internal/domain/repository"
)

var _ repository.OpportunityRepository = (*OpportunityRepo)(nil)

const opportunityColumns = `
	id, code, title, COALESCE(description, ''), company_id, COALESCE(origin, ''),
	COALESCE(segment, ''), COALESCE(recommended_phase, ''), pipeline_stage,
	probability_percent, estimated_amount_clp, proposal_sent_at, expected_close_date,
	closed_at, COALESCE(lost_reason, ''), owner_id, created_at, updated_at`

var opportunityGroupColumns = map[string]bool{"pipeline_stage": true, "recommended_phase": true}

// OpportunityRepo implementación de OpportunityRepository (usable con pool o tx).
type OpportunityRepo struct {
	q Querier
}

// NewOpportunityRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOpportunityRepository(q Querier) *OpportunityRepo {
	return &OpportunityRepo{q: q}
}

// Create persiste una nueva oportunidad y completa su ID.
func (r *OpportunityRepo) Create(ctx context.Context, o *entity.Opportunity) error {
	query := `
		INSERT INTO opportunities (
			code, title, description, company_id, origin, segment, recommended_phase,
			pipeline_stage, probability_percent, estimated_amount_clp, proposal_sent_at,
			expected_close_date, closed_at, lost_reason, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		o.Code, o.Title, nullIfEmpty(o.Description), o.CompanyID, nullIfEmpty(o.Origin),
		nullIfEmpty(o.Segment), nullIfEmpty(o.RecommendedPhase), string(o.PipelineStage),
		o.ProbabilityPercent, o.EstimatedAmountCLP, o.ProposalSentAt, o.ExpectedCloseDate,
		o.ClosedAt, nullIfEmpty(o.LostReason), o.OwnerID, o.CreatedAt, o.UpdatedAt,
	).Scan(&o.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: código de oportunidad %s duplicado", domain.ErrConflict, o.Code)
		}
		return fmt.Errorf("insert opportunity: %w", err)
	}
	return nil
}

// GetByID obtiene una oportunidad por ID.
func (r *OpportunityRepo) GetByID(ctx context.Context, id int64) (*entity.Opportunity, error) {
	return r.get(ctx, `SELECT `+opportunityColumns+` FROM opportunities WHERE id = $1`, id)
}

// GetByIDForUpdate obtiene la oportunidad con bloqueo de fila (usar dentro de TxRunner.Run).
func (r *OpportunityRepo) GetByIDForUpdate(ctx context.Context, id int64) (*entity.Opportunity, error) {
	return r.get(ctx, `SELECT `+opportunityColumns+` FROM opportunities WHERE id = $1 FOR UPDATE`, id)
}

func (r *OpportunityRepo) get(ctx context.Context, query string, id int64) (*entity.Opportunity, error) {
	o, err := scanOpportunity(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get opportunity: %w", err)
	}
	return o, nil
}

// Update actualiza la oportunidad. El código no se modifica.
func (r *OpportunityRepo) Update(ctx context.Context, o *entity.Opportunity) error {
	query := `
		UPDATE opportunities SET
			title = $2, description = $3, company_id = $4, origin = $5, segment = $6,
			recommended_phase = $7, pipeline_stage = $8, probability_percent = $9,
			estimated_amount_clp = $10, proposal_sent_at = $11, expected_close_date = $12,
			closed_at = $13, lost_reason = $14, owner_id = $15, updated_at = $16
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		o.ID, o.Title, nullIfEmpty(o.Description), o.CompanyID, nullIfEmpty(o.Origin),
		nullIfEmpty(o.Segment), nullIfEmpty(o.RecommendedPhase), string(o.PipelineStage),
		o.ProbabilityPercent, o.EstimatedAmountCLP, o.ProposalSentAt, o.ExpectedCloseDate,
		o.ClosedAt, nullIfEmpty(o.LostReason), o.OwnerID, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update opportunity: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: oportunidad con ID %d no encontrada", domain.ErrNotFound, o.ID)
	}
	return nil
}

// Delete elimina físicamente la oportunidad.
func (r *OpportunityRepo) Delete(ctx context.Context, id int64) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM opportunities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete opportunity: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: oportunidad con ID %d no encontrada", domain.ErrNotFound, id)
	}
	return nil
}

// List devuelve oportunidades filtradas, más recientes primero.
func (r *OpportunityRepo) List(ctx context.Context, f repository.OpportunityFilter, limit, offset int) ([]*entity.Opportunity, error) {
	w := opportunityWhere(f)
	query := `SELECT ` + opportunityColumns + ` FROM opportunities` + w.sql() +
		` ORDER BY created_at DESC, id DESC LIMIT ` + w.next()
	args := append(w.args, limit)
	query += ` OFFSET ` + placeholder(len(args)+1)
	args = append(args, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	defer rows.Close()

	var list []*entity.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan opportunity: %w", err)
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// Count total de oportunidades que cumplen el filtro.
func (r *OpportunityRepo) Count(ctx context.Context, f repository.OpportunityFilter) (int, error) {
	w := opportunityWhere(f)
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM opportunities`+w.sql(), w.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count opportunities: %w", err)
	}
	return n, nil
}

// CountBy agrupa por pipeline_stage o recommended_phase.
func (r *OpportunityRepo) CountBy(ctx context.Context, field string) ([]repository.GroupCount, error) {
	if !opportunityGroupColumns[field] {
		return nil, fmt.Errorf("%w: no se puede agrupar oportunidades por %q", domain.ErrInvalidInput, field)
	}
	return groupCount(ctx, r.q, "opportunities", field)
}

// SumEstimatedAmount suma estimated_amount_clp excluyendo las etapas indicadas.
func (r *OpportunityRepo) SumEstimatedAmount(ctx context.Context, exclude ...pipeline.Stage) (decimal.Decimal, error) {
	stages := make([]string, 0, len(exclude))
	for _, s := range exclude {
		stages = append(stages, string(s))
	}
	var total decimal.Decimal
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(estimated_amount_clp), 0)
		FROM opportunities
		WHERE NOT (pipeline_stage = ANY($1))`, stages).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum estimated amount: %w", err)
	}
	return total, nil
}

func opportunityWhere(f repository.OpportunityFilter) *where {
	w := &where{}
	if f.PipelineStage != "" {
		w.add("pipeline_stage = ?", string(f.PipelineStage))
	}
	if f.RecommendedPhase != "" {
		w.add("recommended_phase = ?", f.RecommendedPhase)
	}
	if f.Segment != "" {
		w.add("segment = ?", f.Segment)
	}
	if f.CompanyID != 0 {
		w.add("company_id = ?", f.CompanyID)
	}
	if f.OwnerID != 0 {
		w.add("owner_id = ?", f.OwnerID)
	}
	return w
}

func scanOpportunity(row pgxScanner) (*entity.Opportunity, error) {
	var (
		o     entity.Opportunity
		stage string
	)
	err := row.Scan(
		&o.ID, &o.Code, &o.Title, &o.Description, &o.CompanyID, &o.Origin,
		&o.Segment, &o.RecommendedPhase, &stage,
		&o.ProbabilityPercent, &o.EstimatedAmountCLP, &o.ProposalSentAt, &o.ExpectedCloseDate,
		&o.ClosedAt, &o.LostReason, &o.OwnerID, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.PipelineStage = pipeline.Stage(stage)
	return &o, nil
}
