package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/commercebox/quintal-core/internal/application/alerts"
	"github.com/commercebox/quintal-core/internal/application/reports"
)

// StatusHandler semáforo de stock y recálculo (protegido).
type StatusHandler struct {
	status  *alerts.StatusUseCase
	reports *reports.ReportUseCase
}

// NewStatusHandler construye el handler.
func NewStatusHandler(status *alerts.StatusUseCase, reportUC *reports.ReportUseCase) *StatusHandler {
	return &StatusHandler{status: status, reports: reportUC}
}

// Attention productos cuyo semáforo requiere atención, peores primero.
// GET /api/stock-status/attention
func (h *StatusHandler) Attention(c *fiber.Ctx) error {
	statuses, err := h.reports.RequiringAttention(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(statuses), "statuses": statuses})
}

// Recompute recalcula el semáforo de un producto.
// POST /api/stock-status/:product_id/recompute
func (h *StatusHandler) Recompute(c *fiber.Ctx) error {
	status, err := h.status.Recompute(c.Context(), c.Params("product_id"), "recálculo manual")
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(status)
}

// RecomputeAll recalcula el semáforo de todos los productos activos.
// POST /api/stock-status/recompute-all
func (h *StatusHandler) RecomputeAll(c *fiber.Ctx) error {
	summary, err := h.status.RecomputeAll(c.Context(), "recálculo masivo")
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(summary)
}
