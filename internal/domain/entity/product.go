package entity

import "time"

// Modos de inventario de un producto.
const (
	TrackingModeLot  = "LOT"  // granel: múltiples quintales por producto
	TrackingModeUnit = "UNIT" // unidades completas: un registro de stock por producto
)

// Product representa un producto del catálogo. El núcleo de inventario lo
// referencia por id; su administración (precios, categorías) vive fuera.
type Product struct {
	ID           string
	SKU          string
	Name         string
	Category     string
	TrackingMode string // LOT | UNIT
	BaseUnitID   string // unidad de peso base (solo modo LOT)
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsLotTracked indica si el producto se maneja por quintales (granel).
func (p *Product) IsLotTracked() bool {
	return p.TrackingMode == TrackingModeLot
}
