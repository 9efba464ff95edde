package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/commercebox/quintal-core/internal/domain"
	"github.com/commercebox/quintal-core/internal/domain/entity"
)

// UnitConverter convierte cantidades entre unidades de peso vía el factor de
// conversión a kilogramos de cada unidad (kg como base). Sin efectos de lado.
type UnitConverter struct {
	byID map[string]entity.WeightUnit
}

// NewUnitConverter construye el conversor desde el catálogo de unidades.
func NewUnitConverter(units []entity.WeightUnit) *UnitConverter {
	byID := make(map[string]entity.WeightUnit, len(units))
	for _, u := range units {
		byID[u.ID] = u
		if u.Abbreviation != "" {
			byID[u.Abbreviation] = u
		}
	}
	return &UnitConverter{byID: byID}
}

// Convert convierte una cantidad de una unidad a otra:
// resultado = cantidad * factor(origen) / factor(destino).
// Identidad exacta cuando origen == destino (no introduce error de redondeo).
func (c *UnitConverter) Convert(qty decimal.Decimal, fromUnit, toUnit string) (decimal.Decimal, error) {
	if fromUnit == toUnit {
		return qty, nil
	}
	from, ok := c.byID[fromUnit]
	if !ok {
		return decimal.Zero, &domain.InvalidUnitError{Unit: fromUnit}
	}
	to, ok := c.byID[toUnit]
	if !ok {
		return decimal.Zero, &domain.InvalidUnitError{Unit: toUnit}
	}
	kg := qty.Mul(from.FactorToKg)
	return kg.Div(to.FactorToKg), nil
}

// Factor devuelve el factor de conversión directo entre dos unidades.
func (c *UnitConverter) Factor(fromUnit, toUnit string) (decimal.Decimal, error) {
	if fromUnit == toUnit {
		return decimal.NewFromInt(1), nil
	}
	from, ok := c.byID[fromUnit]
	if !ok {
		return decimal.Zero, &domain.InvalidUnitError{Unit: fromUnit}
	}
	to, ok := c.byID[toUnit]
	if !ok {
		return decimal.Zero, &domain.InvalidUnitError{Unit: toUnit}
	}
	return from.FactorToKg.Div(to.FactorToKg), nil
}

// Known indica si la unidad existe en el catálogo.
func (c *UnitConverter) Known(unit string) bool {
	_, ok := c.byID[unit]
	return ok
}
