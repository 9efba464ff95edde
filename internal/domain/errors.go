package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")
)

// InvalidUnitError indica una unidad de medida desconocida en una conversión.
type InvalidUnitError struct {
	Unit string
}

func (e *InvalidUnitError) Error() string {
	return fmt.Sprintf("unidad de medida desconocida: %q", e.Unit)
}

// InsufficientStockError indica que el stock disponible no cubre lo solicitado.
// Nunca se reintenta: la línea de venta se rechaza completa (sin ventas parciales).
type InsufficientStockError struct {
	ProductID string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf(
		"stock insuficiente para producto %s: solicitado %s, disponible %s, faltante %s",
		e.ProductID, e.Requested, e.Available, e.Shortfall(),
	)
}

// Shortfall devuelve el faltante (solicitado - disponible).
func (e *InsufficientStockError) Shortfall() decimal.Decimal {
	return e.Requested.Sub(e.Available)
}

// ConcurrencyConflictError indica que el peso de un quintal cambió entre el
// cálculo del plan FIFO y su aplicación. El orquestador reintenta el ciclo
// completo (plan nuevo + aplicación) un número acotado de veces.
type ConcurrencyConflictError struct {
	LotID     string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf(
		"conflicto de concurrencia en quintal %s: plan requiere %s, quedan %s",
		e.LotID, e.Requested, e.Available,
	)
}

// InvariantViolationError indica corrupción de datos o un bug de programación
// (ej. peso_antes + delta != peso_después). Nunca se reintenta; la transacción
// se aborta y el error se registra con severidad alta.
type InvariantViolationError struct {
	LotID  string
	Detail string
}

func (e *InvariantViolationError) Error() string {
	if e.LotID == "" {
		return "violación de invariante: " + e.Detail
	}
	return fmt.Sprintf("violación de invariante en quintal %s: %s", e.LotID, e.Detail)
}
