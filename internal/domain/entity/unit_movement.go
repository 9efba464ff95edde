package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnitMovement entrada inmutable del libro de movimientos de un producto por
// unidades. Misma semántica que LotMovement pero con clave por producto y
// cantidades enteras: QtyBefore + Quantity == QtyAfter.
type UnitMovement struct {
	ID        string
	ProductID string
	Kind      string
	Quantity  int64 // positivo entrada, negativo salida
	QtyBefore int64
	QtyAfter  int64
	UnitCost  decimal.Decimal // costo unitario al momento del movimiento
	TotalCost decimal.Decimal
	SaleRef   string
	Note      string
	CreatedBy string
	CreatedAt time.Time
}
