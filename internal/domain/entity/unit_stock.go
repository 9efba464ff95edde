package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnitStock inventario por unidades completas: un solo registro por producto
// (a diferencia de los quintales, que son múltiples). El costo unitario es
// promedio ponderado y solo se recalcula en entradas, nunca en ventas.
type UnitStock struct {
	ProductID string
	Quantity  int64
	Minimum   int64
	Maximum   *int64
	UnitCost  decimal.Decimal // costo promedio ponderado
	LastInAt  *time.Time
	LastOutAt *time.Time
	UpdatedAt time.Time
}

// Value valor del inventario (stock × costo promedio).
func (s *UnitStock) Value() decimal.Decimal {
	return decimal.NewFromInt(s.Quantity).Mul(s.UnitCost)
}

// NeedsReorder indica si el stock cayó al mínimo o por debajo.
func (s *UnitStock) NeedsReorder() bool {
	return s.Quantity <= s.Minimum
}
