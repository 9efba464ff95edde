package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/commercebox/quintal-core/internal/domain"
	"github.com/commercebox/quintal-core/internal/domain/entity"
	invdomain "github.com/commercebox/quintal-core/internal/domain/inventory"
)

// applyPlan aplica un plan FIFO dentro de la transacción: por cada porción
// relee el quintal bajo bloqueo de fila, revalida que el peso alcance
// (defensa contra consumo concurrente desde que se calculó el plan),
// decrementa, marca DEPLETED al llegar a cero y registra un movimiento.
// Si cualquier quintal falla la revalidación, el error aborta la transacción
// completa: no hay aplicación parcial entre quintales.
func applyPlan(
	ctx context.Context,
	r TxRepos,
	plan *invdomain.AllocationPlan,
	kind, saleRef, userID, note string,
	now time.Time,
) ([]*entity.LotMovement, error) {
	movements := make([]*entity.LotMovement, 0, len(plan.Entries))

	for _, entry := range plan.Entries {
		lot, err := r.Lots.GetForUpdate(ctx, entry.Lot.ID)
		if err != nil {
			return nil, err
		}
		if lot == nil || lot.State != entity.LotStateAvailable {
			return nil, &domain.ConcurrencyConflictError{
				LotID:     entry.Lot.ID,
				Requested: entry.Take,
				Available: decimal.Zero,
			}
		}
		if lot.CurrentWeight.LessThan(entry.Take) {
			return nil, &domain.ConcurrencyConflictError{
				LotID:     lot.ID,
				Requested: entry.Take,
				Available: lot.CurrentWeight,
			}
		}

		before := lot.CurrentWeight
		lot.CurrentWeight = before.Sub(entry.Take)
		if lot.CurrentWeight.IsZero() {
			lot.State = entity.LotStateDepleted
		}
		lot.UpdatedAt = now
		if err := r.Lots.UpdateWeight(ctx, lot); err != nil {
			return nil, err
		}

		mov, err := recordLotMovement(ctx, r, lot, kind, entry.Take.Neg(), before, saleRef, userID, note, now)
		if err != nil {
			return nil, err
		}
		movements = append(movements, mov)
	}
	return movements, nil
}

// recordLotMovement crea la entrada del libro verificando la invariante exacta
// peso_antes + delta == peso_después antes de persistir. Una violación aquí es
// un bug o corrupción de datos, nunca una condición operativa.
func recordLotMovement(
	ctx context.Context,
	r TxRepos,
	lot *entity.Lot,
	kind string,
	delta, before decimal.Decimal,
	saleRef, userID, note string,
	now time.Time,
) (*entity.LotMovement, error) {
	after := lot.CurrentWeight
	if !before.Add(delta).Equal(after) {
		return nil, &domain.InvariantViolationError{
			LotID:  lot.ID,
			Detail: "peso_antes + delta != peso_después (" + before.String() + " + " + delta.String() + " != " + after.String() + ")",
		}
	}
	if after.IsNegative() || after.GreaterThan(lot.InitialWeight) {
		return nil, &domain.InvariantViolationError{
			LotID:  lot.ID,
			Detail: "peso fuera de rango [0, peso_inicial]: " + after.String(),
		}
	}

	mov := &entity.LotMovement{
		ID:           uuid.New().String(),
		LotID:        lot.ID,
		Kind:         kind,
		Delta:        delta,
		WeightBefore: before,
		WeightAfter:  after,
		UnitID:       lot.UnitID,
		SaleRef:      saleRef,
		Note:         note,
		CreatedBy:    userID,
		CreatedAt:    now,
	}
	if err := r.LotMovs.Create(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}
