package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/commercebox/quintal-core/internal/application/dto"
	"github.com/commercebox/quintal-core/internal/application/inventory"
	"github.com/commercebox/quintal-core/internal/application/reports"
)

// SalesHandler maneja el consumo de inventario por ventas y su trazabilidad
// (protegido).
type SalesHandler struct {
	consume *inventory.ConsumeForSaleUseCase
	reverse *inventory.ReverseConsumptionUseCase
	reports *reports.ReportUseCase
}

// NewSalesHandler construye el handler.
func NewSalesHandler(
	consume *inventory.ConsumeForSaleUseCase,
	reverse *inventory.ReverseConsumptionUseCase,
	reportUC *reports.ReportUseCase,
) *SalesHandler {
	return &SalesHandler{consume: consume, reverse: reverse, reports: reportUC}
}

// Consume consume inventario por una línea de venta confirmada.
// POST /api/sales/consume
func (h *SalesHandler) Consume(c *fiber.Ctx) error {
	var in dto.ConsumeRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	result, err := h.consume.Consume(c.Context(), inventory.ConsumeInput{
		ProductID: in.ProductID,
		Weight:    in.Weight,
		Quantity:  in.Quantity,
		SaleRef:   in.SaleRef,
		UserID:    GetUserID(c),
		Note:      in.Note,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// Preview calcula el plan FIFO sin aplicarlo (previsualización en el POS).
// GET /api/sales/preview?product_id=...&weight=...
func (h *SalesHandler) Preview(c *fiber.Ctx) error {
	productID := c.Query("product_id")
	weight, err := decimal.NewFromString(c.Query("weight"))
	if productID == "" || err != nil || !weight.IsPositive() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id y weight positivo requeridos"})
	}
	plan, err := h.consume.PreviewAllocation(c.Context(), productID, weight)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(plan)
}

// Reverse devuelve al inventario lo consumido por una venta anulada.
// POST /api/sales/:ref/reverse
func (h *SalesHandler) Reverse(c *fiber.Ctx) error {
	var in struct {
		Note string `json:"note"`
	}
	_ = c.BodyParser(&in) // body opcional

	result, err := h.reverse.Reverse(c.Context(), c.Params("ref"), GetUserID(c), in.Note)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(result)
}

// Trace descompone una venta en los quintales que la sirvieron.
// GET /api/sales/:ref/trace
func (h *SalesHandler) Trace(c *fiber.Ctx) error {
	trace, err := h.reports.TraceSale(c.Context(), c.Params("ref"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(trace)
}
