package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/commercebox/quintal-core/internal/domain"
	"github.com/commercebox/quintal-core/internal/domain/entity"
)

// PlanEntry una porción del plan: cuánto peso tomar de un quintal concreto.
type PlanEntry struct {
	Lot    *entity.Lot
	Take   decimal.Decimal
	Before decimal.Decimal
	After  decimal.Decimal
}

// AllocationPlan distribución FIFO de una venta entre quintales. Es solo un
// plan (lectura): aplicarlo es un paso separado, lo que permite previsualizar
// en el POS antes de confirmar. Un plan no debe reutilizarse entre
// transacciones: la aplicación revalida cada quintal bajo bloqueo de fila.
type AllocationPlan struct {
	ProductID string
	Requested decimal.Decimal
	Entries   []PlanEntry
}

// BuildPlan recorre los quintales en orden FIFO (el caller los provee ya
// ordenados por fecha de recepción, desempate por secuencia de inserción) y
// toma min(peso_actual, restante) de cada uno hasta cubrir lo solicitado.
// Si se agotan los quintales con faltante, no hay plan parcial: devuelve
// InsufficientStockError con solicitado, disponible y faltante.
func BuildPlan(productID string, lots []*entity.Lot, requested decimal.Decimal) (*AllocationPlan, error) {
	if !requested.IsPositive() {
		return nil, domain.ErrInvalidInput
	}

	plan := &AllocationPlan{ProductID: productID, Requested: requested}
	remaining := requested

	for _, lot := range lots {
		if !remaining.IsPositive() {
			break
		}
		if lot.State != entity.LotStateAvailable || !lot.CurrentWeight.IsPositive() {
			continue
		}
		take := decimal.Min(lot.CurrentWeight, remaining)
		plan.Entries = append(plan.Entries, PlanEntry{
			Lot:    lot,
			Take:   take,
			Before: lot.CurrentWeight,
			After:  lot.CurrentWeight.Sub(take),
		})
		remaining = remaining.Sub(take)
	}

	if remaining.IsPositive() {
		return nil, &domain.InsufficientStockError{
			ProductID: productID,
			Requested: requested,
			Available: requested.Sub(remaining),
		}
	}
	return plan, nil
}

// TotalAvailable suma el peso actual de los quintales disponibles.
func TotalAvailable(lots []*entity.Lot) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range lots {
		if lot.State == entity.LotStateAvailable {
			total = total.Add(lot.CurrentWeight)
		}
	}
	return total
}
