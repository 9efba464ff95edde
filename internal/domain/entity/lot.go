package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un quintal. RESERVED y DAMAGED son retenciones administrativas:
// el asignador FIFO no los considera. DEPLETED se da si y solo si el peso
// actual es cero.
const (
	LotStateAvailable = "AVAILABLE"
	LotStateReserved  = "RESERVED"
	LotStateDamaged   = "DAMAGED"
	LotStateDepleted  = "DEPLETED"
)

// Lot representa un quintal/saco físico individual recibido en inventario.
// Se vende del más antiguo primero (FIFO por ReceivedAt, desempate por Seq).
// Nunca se elimina: un quintal consumido queda como registro histórico en cero.
type Lot struct {
	ID            string
	Seq           int64  // orden de inserción, desempate determinista del FIFO
	Code          string // código único (ej: QNT-20260514-A3F2B1C9)
	ProductID     string
	SupplierID    string
	InitialWeight decimal.Decimal
	CurrentWeight decimal.Decimal // 0 <= CurrentWeight <= InitialWeight
	UnitID        string
	CostPerUnit   decimal.Decimal // costo por unidad de peso, inmutable tras la recepción
	TotalCost     decimal.Decimal // InitialWeight * CostPerUnit
	ReceivedAt    time.Time
	ExpiresAt     *time.Time

	// Procedencia (trazabilidad origen a venta)
	SupplierLot   string
	InvoiceNumber string
	Origin        string

	State     string
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PercentRemaining porcentaje de peso restante respecto al inicial.
func (l *Lot) PercentRemaining() decimal.Decimal {
	if !l.InitialWeight.IsPositive() {
		return decimal.Zero
	}
	return l.CurrentWeight.Div(l.InitialWeight).Mul(decimal.NewFromInt(100))
}

// WeightSold peso consumido desde la recepción.
func (l *Lot) WeightSold() decimal.Decimal {
	return l.InitialWeight.Sub(l.CurrentWeight)
}

// DaysToExpiry días restantes para el vencimiento; -1 si no tiene fecha.
func (l *Lot) DaysToExpiry(now time.Time) int {
	if l.ExpiresAt == nil {
		return -1
	}
	return int(l.ExpiresAt.Sub(now).Hours() / 24)
}
