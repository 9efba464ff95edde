package entity

import "time"

// Supplier representa un proveedor de quintales (referenciado por trazabilidad).
type Supplier struct {
	ID        string
	Name      string
	TaxID     string
	Active    bool
	CreatedAt time.Time
}
