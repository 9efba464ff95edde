package entity

import "github.com/shopspring/decimal"

// WeightUnit unidad de medida de peso con factor de conversión a kilogramos
// (kg como base, factor 1). Ej: lb=0.453592, arroba=11.3398, quintal=45.3592.
type WeightUnit struct {
	ID           string
	Name         string
	Abbreviation string
	FactorToKg   decimal.Decimal
	Active       bool
}
