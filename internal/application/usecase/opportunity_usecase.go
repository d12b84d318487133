package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/asesoriaprevencion/crm-api/internal/application/dto"
	"github.com/asesoriaprevencion/crm-api/internal/application/ports"
	"github.com/asesoriaprevencion/crm-api/internal/domain"
	"github.com/asesoriaprevencion/crm-api/internal/domain/entity"
	"github.com/asesoriaprevencion/crm-api/internal/domain/pipeline"
	"github.com/asesoriaprevencion/crm-api/internal/domain/repository"
)

// OpportunityUseCase ciclo de vida de las oportunidades: creación con código OPP-####,
// transiciones de etapa según la política del pipeline y estadísticas.
type OpportunityUseCase struct {
	tx        TxRunner
	repo      repository.OpportunityRepository
	companies repository.CompanyRepository
	users     repository.UserRepository
	recorder  ports.StageChangeRecorder
	log       zerolog.Logger
}

// NewOpportunityUseCase construye el caso de uso. recorder puede ser nil.
func NewOpportunityUseCase(
	tx TxRunner,
	repo repository.OpportunityRepository,
	companies repository.CompanyRepository,
	users repository.UserRepository,
	recorder ports.StageChangeRecorder,
	log zerolog.Logger,
) *OpportunityUseCase {
	return &OpportunityUseCase{
		tx:        tx,
		repo:      repo,
		companies: companies,
		users:     users,
		recorder:  recorder,
		log:       log.With().Str("component", "opportunities").Logger(),
	}
}

// Create crea una oportunidad. La empresa debe existir (domain.ErrNotFound si no, sin escribir nada).
// Sin probabilidad explícita se usa la de la etapa; sin responsable se asigna actingUserID.
func (uc *OpportunityUseCase) Create(ctx context.Context, in dto.CreateOpportunityRequest, actingUserID int64) (*dto.OpportunityResponse, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title es requerido", domain.ErrInvalidInput)
	}
	stage := pipeline.DefaultStage
	if in.PipelineStage != "" {
		st, err := pipeline.Parse(in.PipelineStage)
		if err != nil {
			return nil, err
		}
		stage = st
	}
	probability := pipeline.DefaultProbability(stage)
	if in.ProbabilityPercent != nil {
		if err := validateProbability(*in.ProbabilityPercent); err != nil {
			return nil, err
		}
		probability = *in.ProbabilityPercent
	}
	amount := decimal.Zero
	if in.EstimatedAmountCLP != nil {
		if err := validateAmount(*in.EstimatedAmountCLP); err != nil {
			return nil, err
		}
		amount = *in.EstimatedAmountCLP
	}
	ownerID := ownerRef(in.OwnerID)
	if ownerID != nil {
		if err := requireUser(ctx, uc.users, *ownerID); err != nil {
			return nil, err
		}
	} else if actingUserID != 0 {
		ownerID = &actingUserID
	}

	var (
		opp     *entity.Opportunity
		company *entity.Company
	)
	err := uc.tx.Run(ctx, func(repos TxRepos) error {
		c, err := repos.Companies.GetByID(ctx, in.CompanyID)
		if err != nil {
			return err
		}
		if c == nil {
			return companyNotFound(in.CompanyID)
		}
		company = c
		code, err := allocateCode(ctx, repos.Sequences, entity.OpportunityCodePrefix)
		if err != nil {
			return err
		}
		now := time.Now()
		opp = &entity.Opportunity{
			Code:               code,
			Title:              title,
			Description:        in.Description,
			CompanyID:          in.CompanyID,
			Origin:             in.Origin,
			Segment:            in.Segment,
			RecommendedPhase:   in.RecommendedPhase,
			PipelineStage:      stage,
			ProbabilityPercent: probability,
			EstimatedAmountCLP: amount,
			OwnerID:            ownerID,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if stage.IsClosing() {
			opp.ClosedAt = &now
		}
		return repos.Opportunities.Create(ctx, opp)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("opportunity_id", opp.ID).Str("code", opp.Code).Str("stage", stage.String()).Msg("oportunidad creada")
	return uc.joined(ctx, opp, company)
}

// FindOne obtiene una oportunidad con el resumen de su empresa y responsable.
func (uc *OpportunityUseCase) FindOne(ctx context.Context, id int64) (*dto.OpportunityResponse, error) {
	opp, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if opp == nil {
		return nil, opportunityNotFound(id)
	}
	return uc.joined(ctx, opp, nil)
}

// FindAll lista oportunidades filtradas, más recientes primero.
func (uc *OpportunityUseCase) FindAll(ctx context.Context, q dto.OpportunityQuery) (*dto.OpportunityListResponse, error) {
	q.DefaultPage()
	filter := repository.OpportunityFilter{
		RecommendedPhase: q.RecommendedPhase,
		Segment:          q.Segment,
		CompanyID:        q.CompanyID,
		OwnerID:          q.OwnerID,
	}
	if q.PipelineStage != "" {
		st, err := pipeline.Parse(q.PipelineStage)
		if err != nil {
			return nil, err
		}
		filter.PipelineStage = st
	}
	list, err := uc.repo.List(ctx, filter, q.Limit, q.Offset())
	if err != nil {
		return nil, err
	}
	total, err := uc.repo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	users := newUserLookup(uc.users)
	companies := make(map[int64]*entity.Company)
	data := make([]dto.OpportunityResponse, 0, len(list))
	for _, o := range list {
		c, ok := companies[o.CompanyID]
		if !ok {
			if c, err = uc.companies.GetByID(ctx, o.CompanyID); err != nil {
				return nil, err
			}
			companies[o.CompanyID] = c
		}
		owner, err := users.get(ctx, o.OwnerID)
		if err != nil {
			return nil, err
		}
		data = append(data, *toOpportunityResponse(o, c, owner))
	}
	return &dto.OpportunityListResponse{Data: data, Meta: dto.NewPageMeta(total, q.PageRequest)}, nil
}

// Update aplica un parche genérico. Si cambia company_id la nueva empresa debe existir.
// pipeline_stage se guarda tal cual: no pasa por la política ni recalcula probabilidad o closed_at.
func (uc *OpportunityUseCase) Update(ctx context.Context, id int64, in dto.UpdateOpportunityRequest) (*dto.OpportunityResponse, error) {
	var stage pipeline.Stage
	if in.PipelineStage != nil {
		st, err := pipeline.Parse(*in.PipelineStage)
		if err != nil {
			return nil, err
		}
		stage = st
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, fmt.Errorf("%w: title no puede quedar vacío", domain.ErrInvalidInput)
	}
	if in.ProbabilityPercent != nil {
		if err := validateProbability(*in.ProbabilityPercent); err != nil {
			return nil, err
		}
	}
	if in.EstimatedAmountCLP != nil {
		if err := validateAmount(*in.EstimatedAmountCLP); err != nil {
			return nil, err
		}
	}
	proposalSentAt, err := parseDate("proposal_sent_at", deref(in.ProposalSentAt))
	if err != nil {
		return nil, err
	}
	expectedClose, err := parseDate("expected_close_date", deref(in.ExpectedCloseDate))
	if err != nil {
		return nil, err
	}
	ownerID := ownerRef(in.OwnerID)
	if ownerID != nil {
		if err := requireUser(ctx, uc.users, *ownerID); err != nil {
			return nil, err
		}
	}

	var opp *entity.Opportunity
	err = uc.tx.Run(ctx, func(repos TxRepos) error {
		existing, err := repos.Opportunities.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return opportunityNotFound(id)
		}
		if in.CompanyID != nil {
			c, err := repos.Companies.GetByID(ctx, *in.CompanyID)
			if err != nil {
				return err
			}
			if c == nil {
				return companyNotFound(*in.CompanyID)
			}
			existing.CompanyID = c.ID
		}
		setString(&existing.Title, in.Title)
		setString(&existing.Description, in.Description)
		setString(&existing.Origin, in.Origin)
		setString(&existing.Segment, in.Segment)
		setString(&existing.RecommendedPhase, in.RecommendedPhase)
		setString(&existing.LostReason, in.LostReason)
		if stage != "" {
			existing.PipelineStage = stage
		}
		if in.ProbabilityPercent != nil {
			existing.ProbabilityPercent = *in.ProbabilityPercent
		}
		if in.EstimatedAmountCLP != nil {
			existing.EstimatedAmountCLP = *in.EstimatedAmountCLP
		}
		if ownerID != nil {
			existing.OwnerID = ownerID
		}
		if proposalSentAt != nil {
			existing.ProposalSentAt = proposalSentAt
		}
		if expectedClose != nil {
			existing.ExpectedCloseDate = expectedClose
		}
		existing.UpdatedAt = time.Now()
		opp = existing
		return repos.Opportunities.Update(ctx, existing)
	})
	if err != nil {
		return nil, err
	}
	return uc.joined(ctx, opp, nil)
}

// UpdateStage mueve la oportunidad a otra etapa:
//   - valida la transición (domain.ErrInvalidTransition si salta más de 2 etapas);
//   - recalcula siempre probability_percent con la probabilidad de la etapa destino;
//   - marca closed_at = ahora si la etapa destino es de cierre (nunca lo limpia).
//
// La nota no se guarda en la oportunidad; se entrega al StageChangeRecorder.
func (uc *OpportunityUseCase) UpdateStage(ctx context.Context, id int64, in dto.UpdateStageRequest) (*dto.OpportunityResponse, error) {
	next, err := pipeline.Parse(in.PipelineStage)
	if err != nil {
		return nil, err
	}

	var (
		opp        *entity.Opportunity
		transition pipeline.Transition
	)
	err = uc.tx.Run(ctx, func(repos TxRepos) error {
		existing, err := repos.Opportunities.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return opportunityNotFound(id)
		}
		transition, err = pipeline.ValidateTransition(existing.PipelineStage, next)
		if err != nil {
			return err
		}
		now := time.Now()
		existing.PipelineStage = next
		existing.ProbabilityPercent = pipeline.DefaultProbability(next)
		if next.IsClosing() {
			existing.ClosedAt = &now
		}
		existing.UpdatedAt = now
		opp = existing
		return repos.Opportunities.Update(ctx, existing)
	})
	if err != nil {
		return nil, err
	}

	if transition.Backward {
		uc.log.Warn().
			Int64("opportunity_id", opp.ID).
			Str("from", transition.From.String()).
			Str("to", transition.To.String()).
			Msg("retroceso de etapa")
	}
	uc.record(ctx, opp, transition, in.Note)
	return uc.joined(ctx, opp, nil)
}

// ownerRef normaliza owner_id: 0 (valor cero del JSON o del formulario) equivale a ausente.
func ownerRef(id *int64) *int64 {
	if id == nil || *id == 0 {
		return nil
	}
	return id
}

// Remove elimina físicamente la oportunidad.
func (uc *OpportunityUseCase) Remove(ctx context.Context, id int64) (*dto.MessageResponse, error) {
	opp, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if opp == nil {
		return nil, opportunityNotFound(id)
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return &dto.MessageResponse{Message: "Oportunidad eliminada exitosamente"}, nil
}

// Stats total, conteos por etapa y fase recomendada, y suma del monto estimado sin CIERRE_P.
func (uc *OpportunityUseCase) Stats(ctx context.Context) (*dto.OpportunityStats, error) {
	total, err := uc.repo.Count(ctx, repository.OpportunityFilter{})
	if err != nil {
		return nil, fmt.Errorf("contar oportunidades: %w", err)
	}
	byStage, err := uc.repo.CountBy(ctx, "pipeline_stage")
	if err != nil {
		return nil, fmt.Errorf("oportunidades por etapa: %w", err)
	}
	byPhase, err := uc.repo.CountBy(ctx, "recommended_phase")
	if err != nil {
		return nil, fmt.Errorf("oportunidades por fase: %w", err)
	}
	value, err := uc.repo.SumEstimatedAmount(ctx, pipeline.CierreP)
	if err != nil {
		return nil, fmt.Errorf("valor del pipeline: %w", err)
	}
	return &dto.OpportunityStats{
		Total:               total,
		ByStage:             toGroupCounts(byStage),
		ByPhase:             toGroupCounts(byPhase),
		TotalEstimatedValue: value,
	}, nil
}

func (uc *OpportunityUseCase) record(ctx context.Context, opp *entity.Opportunity, t pipeline.Transition, note string) {
	if uc.recorder == nil {
		return
	}
	err := uc.recorder.RecordStageChange(ctx, ports.StageChange{
		OpportunityID:   opp.ID,
		OpportunityCode: opp.Code,
		From:            t.From,
		To:              t.To,
		Backward:        t.Backward,
		Note:            note,
		ChangedAt:       opp.UpdatedAt,
	})
	if err != nil {
		uc.log.Error().Err(err).Int64("opportunity_id", opp.ID).Msg("registrar cambio de etapa")
	}
}

// joined arma la respuesta con empresa y responsable. company puede venir ya cargada.
func (uc *OpportunityUseCase) joined(ctx context.Context, opp *entity.Opportunity, company *entity.Company) (*dto.OpportunityResponse, error) {
	if company == nil {
		c, err := uc.companies.GetByID(ctx, opp.CompanyID)
		if err != nil {
			return nil, err
		}
		company = c
	}
	owner, err := newUserLookup(uc.users).get(ctx, opp.OwnerID)
	if err != nil {
		return nil, err
	}
	return toOpportunityResponse(opp, company, owner), nil
}

func opportunityNotFound(id int64) error {
	return fmt.Errorf("%w: oportunidad con ID %d no encontrada", domain.ErrNotFound, id)
}

func validateProbability(p int) error {
	if p < 0 || p > 100 {
		return fmt.Errorf("%w: probability_percent debe estar entre 0 y 100", domain.ErrInvalidInput)
	}
	return nil
}

func validateAmount(a decimal.Decimal) error {
	if a.IsNegative() {
		return fmt.Errorf("%w: estimated_amount_clp no puede ser negativo", domain.ErrInvalidInput)
	}
	return nil
}

func toOpportunityResponse(o *entity.Opportunity, company *entity.Company, owner *entity.UserSummary) *dto.OpportunityResponse {
	return &dto.OpportunityResponse{
		ID:                 o.ID,
		Code:               o.Code,
		Title:              o.Title,
		Description:        o.Description,
		CompanyID:          o.CompanyID,
		Origin:             o.Origin,
		Segment:            o.Segment,
		RecommendedPhase:   o.RecommendedPhase,
		PipelineStage:      o.PipelineStage.String(),
		ProbabilityPercent: o.ProbabilityPercent,
		EstimatedAmountCLP: o.EstimatedAmountCLP,
		ProposalSentAt:     o.ProposalSentAt,
		ExpectedCloseDate:  o.ExpectedCloseDate,
		ClosedAt:           o.ClosedAt,
		LostReason:         o.LostReason,
		OwnerID:            o.OwnerID,
		Company:            toCompanySummary(company),
		Owner:              toUserSummaryResponse(owner),
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}
