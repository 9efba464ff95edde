package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/commercebox/quintal-core/internal/application/dto"
	"github.com/commercebox/quintal-core/internal/application/inventory"
	"github.com/commercebox/quintal-core/internal/application/reports"
	"github.com/commercebox/quintal-core/internal/domain/entity"
)

// LotHandler maneja las peticiones HTTP de quintales (protegido).
type LotHandler struct {
	receive *inventory.ReceiveLotUseCase
	reports *reports.ReportUseCase
}

// NewLotHandler construye el handler.
func NewLotHandler(receive *inventory.ReceiveLotUseCase, reportUC *reports.ReportUseCase) *LotHandler {
	return &LotHandler{receive: receive, reports: reportUC}
}

func lotToResponse(l *entity.Lot) dto.LotResponse {
	return dto.LotResponse{
		ID:            l.ID,
		Code:          l.Code,
		ProductID:     l.ProductID,
		SupplierID:    l.SupplierID,
		InitialWeight: l.InitialWeight,
		CurrentWeight: l.CurrentWeight,
		PercentLeft:   l.PercentRemaining().Round(2),
		UnitID:        l.UnitID,
		CostPerUnit:   l.CostPerUnit,
		TotalCost:     l.TotalCost,
		State:         l.State,
		ReceivedAt:    l.ReceivedAt,
		ExpiresAt:     l.ExpiresAt,
		SupplierLot:   l.SupplierLot,
		InvoiceNumber: l.InvoiceNumber,
		Origin:        l.Origin,
	}
}

// Receive registra la recepción de un quintal nuevo.
// POST /api/lots
func (h *LotHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveLotRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	lot, err := h.receive.ReceiveLot(c.Context(), inventory.ReceiveLotInput{
		ProductID:     in.ProductID,
		SupplierID:    in.SupplierID,
		Weight:        in.Weight,
		UnitID:        in.UnitID,
		UnitCost:      in.UnitCost,
		ExpiresAt:     in.ExpiresAt,
		SupplierLot:   in.SupplierLot,
		InvoiceNumber: in.InvoiceNumber,
		Origin:        in.Origin,
		UserID:        GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(lotToResponse(lot))
}

// History devuelve el historial completo de un quintal.
// GET /api/lots/:id/history
func (h *LotHandler) History(c *fiber.Ctx) error {
	history, err := h.reports.History(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(history)
}

// Expiring lista los quintales próximos a vencer.
// GET /api/lots/expiring?days=7
func (h *LotHandler) Expiring(c *fiber.Ctx) error {
	days := c.QueryInt("days", 7)
	if days <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "days debe ser positivo"})
	}
	lots, err := h.reports.ExpiringLots(c.Context(), days)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(lots), "lots": lots})
}

// ListByProduct listado paginado de quintales de un producto.
// GET /api/products/:id/lots
func (h *LotHandler) ListByProduct(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()

	lots, err := h.reports.ListLots(c.Context(), c.Params("id"), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.LotResponse, 0, len(lots))
	for _, l := range lots {
		out = append(out, lotToResponse(l))
	}
	return c.JSON(fiber.Map{
		"lots": out,
		"page": dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}
