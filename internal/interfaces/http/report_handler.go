package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/asesoriaprevencion/crm-api/internal/application/usecase"
)

// ReportHandler maneja los endpoints de reportes.
type ReportHandler struct {
	uc *usecase.ReportUseCase
}

// NewReportHandler construye el handler.
func NewReportHandler(uc *usecase.ReportUseCase) *ReportHandler {
	return &ReportHandler{uc: uc}
}

// Pipeline devuelve el resumen del pipeline.
// GET /api/reports/pipeline
func (h *ReportHandler) Pipeline(c *fiber.Ctx) error {
	out, err := h.uc.PipelineSummary(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// PipelinePDF descarga el resumen del pipeline en PDF.
// GET /api/reports/pipeline.pdf
func (h *ReportHandler) PipelinePDF(c *fiber.Ctx) error {
	pdf, err := h.uc.PipelinePDF(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	filename := fmt.Sprintf("pipeline-%s.pdf", time.Now().Format("20060102"))
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdf)
}
