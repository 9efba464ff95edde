package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/commercebox/quintal-core/internal/domain/entity"
)

// Thresholds umbrales configurables del semáforo de stock. El núcleo los trata
// como entrada inmutable por llamada; vienen de la configuración externa.
type Thresholds struct {
	CriticalPct       decimal.Decimal // modo LOT: CRITICAL si %restante <= este valor (default 10)
	LowPct            decimal.Decimal // modo LOT: LOW si %restante <= este valor (default 25)
	UnitLowMultiplier decimal.Decimal // modo UNIT: LOW si stock <= mínimo * multiplicador (default 2)
	ExpiryDays        int             // ventana de alerta de vencimiento en días (default 7)
}

// DefaultThresholds valores por defecto del sistema.
func DefaultThresholds() Thresholds {
	return Thresholds{
		CriticalPct:       decimal.NewFromInt(10),
		LowPct:            decimal.NewFromInt(25),
		UnitLowMultiplier: decimal.NewFromInt(2),
		ExpiryDays:        7,
	}
}

// LotState deriva el semáforo para modo LOT a partir de los agregados de
// quintales activos. Si el peso inicial total es cero, el porcentaje se define
// como cero (producto sin quintales = DEPLETED).
func LotState(totalWeight, initialWeight decimal.Decimal, th Thresholds) (state string, pct decimal.Decimal) {
	if initialWeight.IsPositive() {
		pct = totalWeight.Div(initialWeight).Mul(decimal.NewFromInt(100))
	} else {
		pct = decimal.Zero
	}
	switch {
	case !totalWeight.IsPositive():
		return entity.StatusDepleted, pct
	case pct.LessThanOrEqual(th.CriticalPct):
		return entity.StatusCritical, pct
	case pct.LessThanOrEqual(th.LowPct):
		return entity.StatusLow, pct
	default:
		return entity.StatusNormal, pct
	}
}

// UnitState deriva el semáforo para modo UNIT:
// DEPLETED en cero; CRITICAL si stock <= mínimo; LOW si stock <= mínimo*mult.
func UnitState(qty, minimum int64, th Thresholds) string {
	switch {
	case qty == 0:
		return entity.StatusDepleted
	case qty <= minimum:
		return entity.StatusCritical
	case decimal.NewFromInt(qty).LessThanOrEqual(decimal.NewFromInt(minimum).Mul(th.UnitLowMultiplier)):
		return entity.StatusLow
	default:
		return entity.StatusNormal
	}
}
