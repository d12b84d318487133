package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/asesoriaprevencion/crm-api/internal/application/dto"
	"github.com/asesoriaprevencion/crm-api/internal/domain"
	"github.com/asesoriaprevencion/crm-api/internal/domain/entity"
	"github.com/asesoriaprevencion/crm-api/internal/domain/repository"
)

// recentOpportunities cantidad de oportunidades incluidas en el detalle de empresa.
const recentOpportunities = 5

// CompanyUseCase directorio de empresas: unicidad de RUT, códigos CLI-#### y baja lógica.
type CompanyUseCase struct {
	tx    TxRunner
	repo  repository.CompanyRepository
	opps  repository.OpportunityRepository
	users repository.UserRepository
}

// NewCompanyUseCase construye el caso de uso con sus puertos de persistencia.
func NewCompanyUseCase(
	tx TxRunner,
	repo repository.CompanyRepository,
	opps repository.OpportunityRepository,
	users repository.UserRepository,
) *CompanyUseCase {
	return &CompanyUseCase{tx: tx, repo: repo, opps: opps, users: users}
}

// Create crea una empresa. Devuelve domain.ErrConflict si el RUT ya está registrado.
func (uc *CompanyUseCase) Create(ctx context.Context, in dto.CreateCompanyRequest) (*dto.CompanyResponse, error) {
	name := strings.TrimSpace(in.BusinessName)
	if name == "" {
		return nil, fmt.Errorf("%w: business_name es requerido", domain.ErrInvalidInput)
	}
	if in.WorkersCount != nil && *in.WorkersCount < 0 {
		return nil, fmt.Errorf("%w: workers_count no puede ser negativo", domain.ErrInvalidInput)
	}
	if in.AccountOwnerID != nil {
		if err := requireUser(ctx, uc.users, *in.AccountOwnerID); err != nil {
			return nil, err
		}
	}
	rut := normalizeRUT(in.RUT)

	var company *entity.Company
	err := uc.tx.Run(ctx, func(repos TxRepos) error {
		if rut != nil {
			existing, err := repos.Companies.GetByRUT(ctx, *rut)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("%w: ya existe una empresa con el RUT %s", domain.ErrConflict, *rut)
			}
		}
		code, err := allocateCode(ctx, repos.Sequences, entity.CompanyCodePrefix)
		if err != nil {
			return err
		}
		now := time.Now()
		company = &entity.Company{
			Code:             code,
			BusinessName:     name,
			TradeName:        in.TradeName,
			RUT:              rut,
			Industry:         in.Industry,
			Segment:          in.Segment,
			WorkersCount:     in.WorkersCount,
			Address:          in.Address,
			Commune:          in.Commune,
			Region:           in.Region,
			AdminBody:        in.AdminBody,
			Website:          in.Website,
			MainContactName:  in.MainContactName,
			MainContactRole:  in.MainContactRole,
			MainContactEmail: in.MainContactEmail,
			MainContactPhone: in.MainContactPhone,
			CurrentPhase:     in.CurrentPhase,
			CurrentServices:  in.CurrentServices,
			Status:           entity.CompanyStatusActive,
			AccountOwnerID:   in.AccountOwnerID,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		return repos.Companies.Create(ctx, company)
	})
	if err != nil {
		return nil, err
	}
	return uc.withOwner(ctx, company)
}

// FindOne obtiene una empresa con su responsable y sus últimas oportunidades.
func (uc *CompanyUseCase) FindOne(ctx context.Context, id int64) (*dto.CompanyDetailResponse, error) {
	company, err := uc.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	resp, err := uc.withOwner(ctx, company)
	if err != nil {
		return nil, err
	}
	opps, err := uc.opps.List(ctx, repository.OpportunityFilter{CompanyID: id}, recentOpportunities, 0)
	if err != nil {
		return nil, err
	}
	out := &dto.CompanyDetailResponse{
		CompanyResponse:     *resp,
		RecentOpportunities: make([]dto.OpportunityBrief, 0, len(opps)),
	}
	for _, o := range opps {
		out.RecentOpportunities = append(out.RecentOpportunities, dto.OpportunityBrief{
			ID:                 o.ID,
			Code:               o.Code,
			Title:              o.Title,
			PipelineStage:      o.PipelineStage.String(),
			EstimatedAmountCLP: o.EstimatedAmountCLP,
		})
	}
	return out, nil
}

// FindAll lista empresas filtradas, más recientes primero.
func (uc *CompanyUseCase) FindAll(ctx context.Context, q dto.CompanyQuery) (*dto.CompanyListResponse, error) {
	q.DefaultPage()
	filter := repository.CompanyFilter{
		Search:  strings.TrimSpace(q.Search),
		Segment: q.Segment,
		Status:  q.Status,
		Region:  q.Region,
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
	data := make([]dto.CompanyResponse, 0, len(list))
	for _, c := range list {
		owner, err := users.get(ctx, c.AccountOwnerID)
		if err != nil {
			return nil, err
		}
		data = append(data, *toCompanyResponse(c, owner))
	}
	return &dto.CompanyListResponse{Data: data, Meta: dto.NewPageMeta(total, q.PageRequest)}, nil
}

// Update aplica un parche parcial. El RUT debe ser único entre las demás empresas.
func (uc *CompanyUseCase) Update(ctx context.Context, id int64, in dto.UpdateCompanyRequest) (*dto.CompanyResponse, error) {
	if in.Status != nil && !entity.IsValidCompanyStatus(*in.Status) {
		return nil, fmt.Errorf("%w: estado desconocido %q", domain.ErrInvalidInput, *in.Status)
	}
	if in.WorkersCount != nil && *in.WorkersCount < 0 {
		return nil, fmt.Errorf("%w: workers_count no puede ser negativo", domain.ErrInvalidInput)
	}
	if in.BusinessName != nil && strings.TrimSpace(*in.BusinessName) == "" {
		return nil, fmt.Errorf("%w: business_name no puede quedar vacío", domain.ErrInvalidInput)
	}
	startDate, err := parseDate("start_date", deref(in.StartDate))
	if err != nil {
		return nil, err
	}
	renewalDate, err := parseDate("renewal_date", deref(in.RenewalDate))
	if err != nil {
		return nil, err
	}
	if in.AccountOwnerID != nil {
		if err := requireUser(ctx, uc.users, *in.AccountOwnerID); err != nil {
			return nil, err
		}
	}

	var company *entity.Company
	err = uc.tx.Run(ctx, func(repos TxRepos) error {
		existing, err := repos.Companies.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return companyNotFound(id)
		}
		if in.RUT != nil {
			rut := normalizeRUT(in.RUT)
			if rut != nil {
				other, err := repos.Companies.GetByRUT(ctx, *rut)
				if err != nil {
					return err
				}
				if other != nil && other.ID != id {
					return fmt.Errorf("%w: ya existe otra empresa con el RUT %s", domain.ErrConflict, *rut)
				}
			}
			existing.RUT = rut
		}
		applyCompanyPatch(existing, in)
		if startDate != nil {
			existing.StartDate = startDate
		}
		if renewalDate != nil {
			existing.RenewalDate = renewalDate
		}
		existing.UpdatedAt = time.Now()
		company = existing
		return repos.Companies.Update(ctx, existing)
	})
	if err != nil {
		return nil, err
	}
	return uc.withOwner(ctx, company)
}

// Remove da de baja lógica la empresa (status CLOSED); la fila nunca se elimina.
func (uc *CompanyUseCase) Remove(ctx context.Context, id int64) (*dto.CompanyRemovedResponse, error) {
	company, err := uc.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	company.Status = entity.CompanyStatusClosed
	company.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, company); err != nil {
		return nil, err
	}
	return &dto.CompanyRemovedResponse{
		Message: "Empresa marcada como cerrada exitosamente",
		Company: *toCompanyResponse(company, nil),
	}, nil
}

// Stats total de empresas y conteos por estado, segmento y fase actual.
func (uc *CompanyUseCase) Stats(ctx context.Context) (*dto.CompanyStats, error) {
	total, err := uc.repo.Count(ctx, repository.CompanyFilter{})
	if err != nil {
		return nil, fmt.Errorf("contar empresas: %w", err)
	}
	byStatus, err := uc.repo.CountBy(ctx, "status")
	if err != nil {
		return nil, fmt.Errorf("empresas por estado: %w", err)
	}
	bySegment, err := uc.repo.CountBy(ctx, "segment")
	if err != nil {
		return nil, fmt.Errorf("empresas por segmento: %w", err)
	}
	byPhase, err := uc.repo.CountBy(ctx, "current_phase")
	if err != nil {
		return nil, fmt.Errorf("empresas por fase: %w", err)
	}
	return &dto.CompanyStats{
		Total:     total,
		ByStatus:  toGroupCounts(byStatus),
		BySegment: toGroupCounts(bySegment),
		ByPhase:   toGroupCounts(byPhase),
	}, nil
}

func (uc *CompanyUseCase) mustGet(ctx context.Context, id int64) (*entity.Company, error) {
	company, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, companyNotFound(id)
	}
	return company, nil
}

func (uc *CompanyUseCase) withOwner(ctx context.Context, c *entity.Company) (*dto.CompanyResponse, error) {
	owner, err := newUserLookup(uc.users).get(ctx, c.AccountOwnerID)
	if err != nil {
		return nil, err
	}
	return toCompanyResponse(c, owner), nil
}

func companyNotFound(id int64) error {
	return fmt.Errorf("%w: empresa con ID %d no encontrada", domain.ErrNotFound, id)
}

func applyCompanyPatch(c *entity.Company, in dto.UpdateCompanyRequest) {
	setString(&c.BusinessName, in.BusinessName)
	setString(&c.TradeName, in.TradeName)
	setString(&c.Industry, in.Industry)
	setString(&c.Segment, in.Segment)
	setString(&c.Address, in.Address)
	setString(&c.Commune, in.Commune)
	setString(&c.Region, in.Region)
	setString(&c.AdminBody, in.AdminBody)
	setString(&c.Website, in.Website)
	setString(&c.MainContactName, in.MainContactName)
	setString(&c.MainContactRole, in.MainContactRole)
	setString(&c.MainContactEmail, in.MainContactEmail)
	setString(&c.MainContactPhone, in.MainContactPhone)
	setString(&c.CurrentPhase, in.CurrentPhase)
	setString(&c.CurrentServices, in.CurrentServices)
	setString(&c.Status, in.Status)
	if in.WorkersCount != nil {
		c.WorkersCount = in.WorkersCount
	}
	if in.AccountOwnerID != nil {
		c.AccountOwnerID = in.AccountOwnerID
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func toCompanyResponse(c *entity.Company, owner *entity.UserSummary) *dto.CompanyResponse {
	if c == nil {
		return nil
	}
	return &dto.CompanyResponse{
		ID:               c.ID,
		Code:             c.Code,
		BusinessName:     c.BusinessName,
		TradeName:        c.TradeName,
		RUT:              c.RUT,
		Industry:         c.Industry,
		Segment:          c.Segment,
		WorkersCount:     c.WorkersCount,
		Address:          c.Address,
		Commune:          c.Commune,
		Region:           c.Region,
		AdminBody:        c.AdminBody,
		Website:          c.Website,
		MainContactName:  c.MainContactName,
		MainContactRole:  c.MainContactRole,
		MainContactEmail: c.MainContactEmail,
		MainContactPhone: c.MainContactPhone,
		CurrentPhase:     c.CurrentPhase,
		CurrentServices:  c.CurrentServices,
		StartDate:        c.StartDate,
		RenewalDate:      c.RenewalDate,
		Status:           c.Status,
		AccountOwnerID:   c.AccountOwnerID,
		AccountOwner:     toUserSummaryResponse(owner),
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func toCompanySummary(c *entity.Company) *dto.CompanySummary {
	if c == nil {
		return nil
	}
	return &dto.CompanySummary{
		ID:           c.ID,
		Code:         c.Code,
		BusinessName: c.BusinessName,
		TradeName:    c.TradeName,
		Segment:      c.Segment,
		WorkersCount: c.WorkersCount,
		Region:       c.Region,
	}
}
