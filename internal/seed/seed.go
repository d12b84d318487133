// Package seed carga usuarios, empresas y oportunidades de demostración
// usando los mismos casos de uso que la API, de modo que los códigos CLI/OPP
// salen de la secuencia real.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/asesoriaprevencion/crm-api/internal/application/dto"
	"github.com/asesoriaprevencion/crm-api/internal/application/usecase"
	"github.com/asesoriaprevencion/crm-api/internal/domain"
	"github.com/asesoriaprevencion/crm-api/internal/domain/entity"
	"github.com/asesoriaprevencion/crm-api/internal/domain/pipeline"
)

// UserStore alta y búsqueda de usuarios por email.
type UserStore interface {
	Create(ctx context.Context, u *entity.UserSummary) error
	GetByEmail(ctx context.Context, email string) (*entity.UserSummary, error)
}

// Result usuarios disponibles tras la carga, por rol.
type Result struct {
	Users         map[string]*entity.UserSummary
	Companies     int
	Opportunities int
}

var demoUsers = []entity.UserSummary{
	{Name: "Administrador", Email: "admin@asesoriaprevencion.cl", Role: entity.RoleAdmin},
	{Name: "Carolina Muñoz", Email: "ceo@asesoriaprevencion.cl", Role: entity.RoleCEO},
	{Name: "Rodrigo Fuentes", Email: "comercial.dir@asesoriaprevencion.cl", Role: entity.RoleDirComercial},
	{Name: "Paula Rojas", Email: "paula.rojas@asesoriaprevencion.cl", Role: entity.RoleComercial},
}

type demoOpportunity struct {
	title  string
	stage  pipeline.Stage
	amount int64
}

type demoCompany struct {
	req  dto.CreateCompanyRequest
	opps []demoOpportunity
}

var demoCompanies = []demoCompany{
	{
		req: dto.CreateCompanyRequest{
			BusinessName: "Constructora Los Andes SpA", TradeName: "Los Andes", RUT: strPtr("76.543.210-3"),
			Industry: "Construcción", Segment: "GRANDE", Region: "Metropolitana", Commune: "Las Condes",
			MainContactName: "Jorge Pérez", MainContactRole: "Gerente de Operaciones", MainContactEmail: "jperez@losandes.cl",
			CurrentPhase: "DIAGNOSTICO",
		},
		opps: []demoOpportunity{
			{"Programa de prevención DS44", pipeline.Propuesta, 4_800_000},
			{"Capacitación trabajo en altura", pipeline.CierreG, 1_200_000},
		},
	},
	{
		req: dto.CreateCompanyRequest{
			BusinessName: "Minera Atacama Norte Ltda.", RUT: strPtr("77.111.222-K"),
			Industry: "Minería", Segment: "GRANDE", Region: "Antofagasta", Commune: "Calama",
			MainContactName: "Andrea Soto", MainContactEmail: "asoto@atacamanorte.cl",
		},
		opps: []demoOpportunity{
			{"Auditoría de seguridad faena", pipeline.Diagnostico, 9_500_000},
			{"Plan de emergencia", pipeline.CierreP, 2_000_000},
		},
	},
	{
		req: dto.CreateCompanyRequest{
			BusinessName: "Transportes del Sur S.A.", TradeName: "TransSur",
			Industry: "Transporte", Segment: "MEDIANA", Region: "Biobío", Commune: "Concepción",
		},
		opps: []demoOpportunity{
			{"Comité paritario", pipeline.Prospeccion, 800_000},
			{"Asesoría mensual prevención", pipeline.Seguimiento, 3_600_000},
		},
	},
}

// Run crea los usuarios que falten y, si no hay empresas, la cartera de demostración.
func Run(ctx context.Context, users UserStore, companies *usecase.CompanyUseCase, opps *usecase.OpportunityUseCase, log zerolog.Logger) (*Result, error) {
	res := &Result{Users: make(map[string]*entity.UserSummary, len(demoUsers))}
	for _, u := range demoUsers {
		existing, err := users.GetByEmail(ctx, u.Email)
		if err != nil {
			return nil, fmt.Errorf("seed: buscar usuario %s: %w", u.Email, err)
		}
		if existing == nil {
			nu := u
			if err := users.Create(ctx, &nu); err != nil {
				return nil, fmt.Errorf("seed: crear usuario %s: %w", u.Email, err)
			}
			existing = &nu
			log.Info().Str("email", nu.Email).Str("role", nu.Role).Msg("usuario creado")
		}
		res.Users[existing.Role] = existing
	}

	current, err := companies.FindAll(ctx, dto.CompanyQuery{PageRequest: dto.PageRequest{Page: 1, Limit: 1}})
	if err != nil {
		return nil, fmt.Errorf("seed: contar empresas: %w", err)
	}
	if current.Meta.Total > 0 {
		log.Info().Int("companies", current.Meta.Total).Msg("ya existen empresas, se omite la cartera de demostración")
		return res, nil
	}

	seller := res.Users[entity.RoleComercial].ID
	for _, dc := range demoCompanies {
		req := dc.req
		req.AccountOwnerID = &seller
		c, err := companies.Create(ctx, req)
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				log.Warn().Str("business_name", req.BusinessName).Msg("empresa duplicada, se omite")
				continue
			}
			return nil, fmt.Errorf("seed: crear empresa %s: %w", req.BusinessName, err)
		}
		res.Companies++

		for _, do := range dc.opps {
			amount := decimal.NewFromInt(do.amount)
			_, err := opps.Create(ctx, dto.CreateOpportunityRequest{
				Title:              do.title,
				CompanyID:          c.ID,
				Segment:            c.Segment,
				PipelineStage:      do.stage.String(),
				EstimatedAmountCLP: &amount,
			}, seller)
			if err != nil {
				return nil, fmt.Errorf("seed: crear oportunidad %q: %w", do.title, err)
			}
			res.Opportunities++
		}
	}
	log.Info().Int("companies", res.Companies).Int("opportunities", res.Opportunities).Msg("cartera de demostración cargada")
	return res, nil
}

func strPtr(s string) *string { return &s }
