package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/commercebox/quintal-core/internal/application/dto"
	"github.com/commercebox/quintal-core/internal/application/inventory"
	"github.com/commercebox/quintal-core/internal/application/reports"
)

// InventoryHandler ajustes manuales y reportes de inventario (protegido;
// los ajustes requieren rol admin o bodeguero).
type InventoryHandler struct {
	adjust  *inventory.AdjustStockUseCase
	reports *reports.ReportUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(adjust *inventory.AdjustStockUseCase, reportUC *reports.ReportUseCase) *InventoryHandler {
	return &InventoryHandler{adjust: adjust, reports: reportUC}
}

// AdjustLot ajusta el peso de un quintal (corrección o merma).
// POST /api/inventory/adjustments/lot
func (h *InventoryHandler) AdjustLot(c *fiber.Ctx) error {
	var in dto.AdjustLotRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	mov, err := h.adjust.AdjustLot(c.Context(), inventory.AdjustLotInput{
		LotID:     in.LotID,
		Delta:     in.Delta,
		Shrinkage: in.Shrinkage,
		Note:      in.Note,
		UserID:    GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(mov)
}

// AdjustUnit ajusta el stock por unidades de un producto.
// POST /api/inventory/adjustments/unit
func (h *InventoryHandler) AdjustUnit(c *fiber.Ctx) error {
	var in dto.AdjustUnitRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	mov, err := h.adjust.AdjustUnit(c.Context(), inventory.AdjustUnitInput{
		ProductID: in.ProductID,
		Delta:     in.Delta,
		UnitCost:  in.UnitCost,
		Note:      in.Note,
		UserID:    GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(mov)
}

// Valuation reporte de valorización del inventario al costo.
// GET /api/inventory/valuation
func (h *InventoryHandler) Valuation(c *fiber.Ctx) error {
	report, err := h.reports.InventoryValuation(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(report)
}
