package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/asesoriaprevencion/crm-api/internal/application/dto"
	"github.com/asesoriaprevencion/crm-api/internal/application/usecase"
)

// OpportunityHandler maneja las peticiones HTTP para el recurso Opportunity.
type OpportunityHandler struct {
	uc *usecase.OpportunityUseCase
}

// NewOpportunityHandler construye el handler.
func NewOpportunityHandler(uc *usecase.OpportunityUseCase) *OpportunityHandler {
	return &OpportunityHandler{uc: uc}
}

// Create godoc
// @Summary      Crear oportunidad
// @Description  Asigna código OPP-####. Sin owner_id el responsable es el usuario del token.
// @Tags         opportunities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateOpportunityRequest  true  "Datos de la oportunidad"
// @Success      201   {object}  dto.OpportunityResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/opportunities [post]
func (h *OpportunityHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOpportunityRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), in, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener oportunidad por ID
// @Tags         opportunities
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  int  true  "ID de la oportunidad"
// @Success      200  {object}  dto.OpportunityResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/opportunities/{id} [get]
func (h *OpportunityHandler) GetByID(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	out, err := h.uc.FindOne(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar oportunidades
// @Tags         opportunities
// @Produce      json
// @Security     BearerAuth
// @Param        page               query  int     false  "Página"  default(1)
// @Param        limit              query  int     false  "Límite"  default(10)
// @Param        pipeline_stage     query  string  false  "Etapa"
// @Param        recommended_phase  query  string  false  "Fase recomendada"
// @Param        segment            query  string  false  "Segmento"
// @Param        company_id         query  int     false  "Empresa"
// @Param        owner_id           query  int     false  "Responsable"
// @Success      200  {object}  dto.OpportunityListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/opportunities [get]
func (h *OpportunityHandler) List(c *fiber.Ctx) error {
	q := dto.OpportunityQuery{
		PageRequest:      pageFromQuery(c),
		PipelineStage:    c.Query("pipeline_stage"),
		RecommendedPhase: c.Query("recommended_phase"),
		Segment:          c.Query("segment"),
		CompanyID:        int64(c.QueryInt("company_id", 0)),
		OwnerID:          int64(c.QueryInt("owner_id", 0)),
	}
	out, err := h.uc.FindAll(c.UserContext(), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar oportunidad (parcial)
// @Description  pipeline_stage se guarda sin validar la transición; usar PATCH /{id}/stage para mover de etapa.
// @Tags         opportunities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  int                           true  "ID de la oportunidad"
// @Param        body  body  dto.UpdateOpportunityRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.OpportunityResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/opportunities/{id} [patch]
func (h *OpportunityHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	var in dto.UpdateOpportunityRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// UpdateStage godoc
// @Summary      Mover oportunidad de etapa
// @Description  Recalcula probability_percent y marca closed_at en etapas de cierre.
// @Tags         opportunities
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  int                     true  "ID de la oportunidad"
// @Param        body  body  dto.UpdateStageRequest  true  "Etapa destino y nota"
// @Success      200   {object}  dto.OpportunityResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/opportunities/{id}/stage [patch]
func (h *OpportunityHandler) UpdateStage(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	var in dto.UpdateStageRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.UpdateStage(c.UserContext(), id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Remove godoc
// @Summary      Eliminar oportunidad
// @Tags         opportunities
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  int  true  "ID de la oportunidad"
// @Success      200  {object}  dto.MessageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/opportunities/{id} [delete]
func (h *OpportunityHandler) Remove(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	out, err := h.uc.Remove(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Stats godoc
// @Summary      Estadísticas del pipeline
// @Tags         opportunities
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.OpportunityStats
// @Router       /api/opportunities/stats [get]
func (h *OpportunityHandler) Stats(c *fiber.Ctx) error {
	out, err := h.uc.Stats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
