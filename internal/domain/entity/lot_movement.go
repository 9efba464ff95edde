package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento sobre un quintal.
const (
	MovementReceipt       = "RECEIPT"        // entrada inicial (recepción)
	MovementSale          = "SALE"           // salida por venta
	MovementAdjustmentIn  = "ADJUSTMENT_IN"  // ajuste positivo (corrección suma)
	MovementAdjustmentOut = "ADJUSTMENT_OUT" // ajuste negativo (corrección resta)
	MovementShrinkage     = "SHRINKAGE"      // merma/pérdida
	MovementReturn        = "RETURN"         // entrada por devolución
)

// LotMovement es una entrada inmutable del libro de movimientos de un quintal.
// Invariante exacta: WeightBefore + Delta == WeightAfter (precisión decimal fija,
// tolerancia cero). Se crea una sola vez por mutación, en la misma transacción,
// y nunca se actualiza ni elimina.
type LotMovement struct {
	ID           string
	LotID        string
	Kind         string
	Delta        decimal.Decimal // positivo entrada, negativo salida
	WeightBefore decimal.Decimal
	WeightAfter  decimal.Decimal
	UnitID       string
	SaleRef      string // venta que originó el movimiento, si aplica
	Note         string
	CreatedBy    string
	CreatedAt    time.Time
}

// IsInbound indica si el movimiento suma peso al quintal.
func (m *LotMovement) IsInbound() bool {
	return m.Delta.IsPositive()
}
