package entity

import "time"

// Tipos de alerta.
const (
	AlertStockLow      = "STOCK_LOW"
	AlertStockCritical = "STOCK_CRITICAL"
	AlertStockDepleted = "STOCK_DEPLETED"
	AlertLotCritical   = "LOT_CRITICAL"
	AlertLotExpiring   = "LOT_EXPIRING"
)

// Prioridades de alerta.
const (
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

// Estados de una alerta. Las alertas se resuelven, nunca se eliminan.
const (
	AlertActive   = "ACTIVE"
	AlertResolved = "RESOLVED"
	AlertIgnored  = "IGNORED"
)

// Alert alerta de stock. A lo sumo una ACTIVA por (producto, tipo, quintal);
// la deduplicación se garantiza en escritura con índice único parcial.
// La mejora de estado no la resuelve en línea: la marca AutoResolvable y un
// barrido separado la resuelve (una persona puede no haberla visto aún).
type Alert struct {
	ID             string
	ProductID      string
	LotID          string // vacío para alertas a nivel de producto
	Kind           string
	Priority       string
	Status         string
	Title          string
	Message        string
	AutoResolvable bool
	CreatedAt      time.Time
	ResolvedAt     *time.Time
	ResolutionNote string
}

// AlertPriorityFor prioridad por defecto según el estado que la originó.
func AlertPriorityFor(state string) (kind, priority string) {
	switch state {
	case StatusDepleted:
		return AlertStockDepleted, PriorityUrgent
	case StatusCritical:
		return AlertStockCritical, PriorityHigh
	case StatusLow:
		return AlertStockLow, PriorityMedium
	}
	return "", ""
}
