package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/commercebox/quintal-core/internal/application/dto"
	"github.com/commercebox/quintal-core/internal/domain"
)

// writeError traduce errores de dominio a respuestas HTTP. El stock
// insuficiente viaja con el faltante exacto para que el POS pueda ofrecer la
// venta parcial.
func writeError(c *fiber.Ctx, err error) error {
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "INSUFFICIENT_STOCK",
			Message: insufficient.Error(),
			Details: dto.InsufficientStockDetails{
				ProductID: insufficient.ProductID,
				Requested: insufficient.Requested,
				Available: insufficient.Available,
				Shortfall: insufficient.Shortfall(),
			},
		})
	}
	var invalidUnit *domain.InvalidUnitError
	if errors.As(err, &invalidUnit) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_UNIT", Message: invalidUnit.Error()})
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "no autenticado"})
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
