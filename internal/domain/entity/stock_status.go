package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del semáforo de stock, de mejor a peor.
const (
	StatusNormal   = "NORMAL"
	StatusLow      = "LOW"
	StatusCritical = "CRITICAL"
	StatusDepleted = "DEPLETED"
)

// StockStatus estado derivado de stock por producto. Es una caché, no fuente
// de verdad: siempre recomputable desde los quintales o el stock por unidades.
type StockStatus struct {
	ProductID    string
	TrackingMode string // LOT | UNIT
	State        string // semáforo NORMAL/LOW/CRITICAL/DEPLETED

	// Modo LOT
	LotCount      int
	TotalWeight   decimal.Decimal
	InitialWeight decimal.Decimal // suma de pesos iniciales de quintales activos
	PercentLeft   decimal.Decimal

	// Modo UNIT
	Quantity int64
	Minimum  int64

	InventoryValue    decimal.Decimal
	RequiresAttention bool
	ComputedAt        time.Time
	ChangedAt         time.Time // último cambio de estado
}

// StatusChange registro histórico de una transición de semáforo.
type StatusChange struct {
	ID          string
	ProductID   string
	FromState   string
	ToState     string
	Mode        string
	StockBefore decimal.Decimal
	StockAfter  decimal.Decimal
	Reason      string
	CreatedAt   time.Time
}

var statusRank = map[string]int{
	StatusNormal:   0,
	StatusLow:      1,
	StatusCritical: 2,
	StatusDepleted: 3,
}

// StatusIsWorse indica si el estado a es estrictamente peor que b bajo el
// orden NORMAL < LOW < CRITICAL < DEPLETED.
func StatusIsWorse(a, b string) bool {
	return statusRank[a] > statusRank[b]
}
