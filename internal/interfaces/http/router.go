package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/asesoriaprevencion/crm-api/internal/application/usecase"
	"github.com/asesoriaprevencion/crm-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	CompanyUC     *usecase.CompanyUseCase
	OpportunityUC *usecase.OpportunityUseCase
	ReportUC      *usecase.ReportUseCase
	JWTSecret     string
}

// Grupos de roles.
var (
	commercialRoles = []string{entity.RoleAdmin, entity.RoleCEO, entity.RoleDirComercial, entity.RoleComercial}
	managementRoles = []string{entity.RoleAdmin, entity.RoleCEO, entity.RoleDirComercial}
	executiveRoles  = []string{entity.RoleAdmin, entity.RoleCEO}
)

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Companies
	companies := api.Group("/companies")
	companyHandler := NewCompanyHandler(deps.CompanyUC)
	companies.Get("/", companyHandler.List)
	companies.Get("/stats", RequireRole(managementRoles...), companyHandler.Stats)
	companies.Get("/:id", companyHandler.GetByID)
	companies.Post("/", RequireRole(commercialRoles...), companyHandler.Create)
	companies.Patch("/:id", RequireRole(commercialRoles...), companyHandler.Update)
	companies.Delete("/:id", RequireRole(executiveRoles...), companyHandler.Remove)

	// Opportunities
	opportunities := api.Group("/opportunities")
	opportunityHandler := NewOpportunityHandler(deps.OpportunityUC)
	opportunities.Get("/", opportunityHandler.List)
	opportunities.Get("/stats", RequireRole(managementRoles...), opportunityHandler.Stats)
	opportunities.Get("/:id", opportunityHandler.GetByID)
	opportunities.Post("/", RequireRole(commercialRoles...), opportunityHandler.Create)
	opportunities.Patch("/:id/stage", RequireRole(commercialRoles...), opportunityHandler.UpdateStage)
	opportunities.Patch("/:id", RequireRole(commercialRoles...), opportunityHandler.Update)
	opportunities.Delete("/:id", RequireRole(managementRoles...), opportunityHandler.Remove)

	// Reports
	reports := api.Group("/reports", RequireRole(managementRoles...))
	reportHandler := NewReportHandler(deps.ReportUC)
	reports.Get("/pipeline", reportHandler.Pipeline)
	reports.Get("/pipeline.pdf", reportHandler.PipelinePDF)
}
