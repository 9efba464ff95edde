package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/commercebox/quintal-core/internal/domain"
	"github.com/commercebox/quintal-core/internal/domain/entity"
	invdomain "github.com/commercebox/quintal-core/internal/domain/inventory"
	"github.com/commercebox/quintal-core/internal/domain/repository"
)

// AdjustStockUseCase ajustes manuales de inventario (correcciones, mermas).
// Misma invariante antes/después que cualquier movimiento; un resultado
// negativo se rechaza con ErrInvalidInput.
type AdjustStockUseCase struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	status      StatusRecomputer
}

// NewAdjustStockUseCase construye el caso de uso.
func NewAdjustStockUseCase(txRunner TxRunner, productRepo repository.ProductRepository, status StatusRecomputer) *AdjustStockUseCase {
	return &AdjustStockUseCase{txRunner: txRunner, productRepo: productRepo, status: status}
}

// AdjustLotInput ajuste con signo sobre un quintal concreto.
type AdjustLotInput struct {
	LotID     string
	Delta     decimal.Decimal // positivo suma, negativo resta
	Shrinkage bool            // true registra la resta como MERMA en vez de ajuste
	Note      string
	UserID    string
}

// AdjustLot aplica el ajuste bajo bloqueo de fila y registra el movimiento.
// Un quintal DEPLETED vuelve a AVAILABLE si el ajuste le devuelve peso; el
// peso nunca puede superar el inicial ni bajar de cero.
func (uc *AdjustStockUseCase) AdjustLot(ctx context.Context, input AdjustLotInput) (*entity.LotMovement, error) {
	if input.LotID == "" || input.UserID == "" || input.Delta.IsZero() {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	var movement *entity.LotMovement
	var alerts []*entity.Alert

	err := uc.txRunner.Run(ctx, func(r TxRepos) error {
		lot, err := r.Lots.GetForUpdate(ctx, input.LotID)
		if err != nil {
			return err
		}
		if lot == nil {
			return domain.ErrNotFound
		}

		before := lot.CurrentWeight
		after := before.Add(input.Delta)
		if after.IsNegative() || after.GreaterThan(lot.InitialWeight) {
			return domain.ErrInvalidInput
		}

		lot.CurrentWeight = after
		switch {
		case after.IsZero():
			lot.State = entity.LotStateDepleted
		case lot.State == entity.LotStateDepleted:
			lot.State = entity.LotStateAvailable
		}
		lot.UpdatedAt = now
		if err := r.Lots.UpdateWeight(ctx, lot); err != nil {
			return err
		}

		kind := entity.MovementAdjustmentIn
		if input.Delta.IsNegative() {
			kind = entity.MovementAdjustmentOut
			if input.Shrinkage {
				kind = entity.MovementShrinkage
			}
		}
		movement, err = recordLotMovement(ctx, r, lot, kind, input.Delta, before, "", input.UserID, input.Note, now)
		if err != nil {
			return err
		}

		product, err := uc.productRepo.GetByID(ctx, lot.ProductID)
		if err != nil {
			return err
		}
		_, created, err := uc.status.RecomputeInTx(ctx, r, product, "ajuste manual")
		if err != nil {
			return err
		}
		alerts = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.status.PublishAlerts(ctx, alerts)
	return movement, nil
}

// AdjustUnitInput ajuste con signo sobre el stock por unidades de un producto.
// UnitCost solo aplica a entradas: actualiza el costo promedio ponderado.
type AdjustUnitInput struct {
	ProductID string
	Delta     int64
	UnitCost  *decimal.Decimal
	Note      string
	UserID    string
}

// AdjustUnit aplica el ajuste de unidades bajo bloqueo de fila.
func (uc *AdjustStockUseCase) AdjustUnit(ctx context.Context, input AdjustUnitInput) (*entity.UnitMovement, error) {
	if input.ProductID == "" || input.UserID == "" || input.Delta == 0 {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.productRepo.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if product.IsLotTracked() {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	var movement *entity.UnitMovement
	var alerts []*entity.Alert

	err = uc.txRunner.Run(ctx, func(r TxRepos) error {
		stock, err := r.UnitStocks.GetForUpdate(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if stock == nil {
			stock = &entity.UnitStock{ProductID: input.ProductID}
		}

		before := stock.Quantity
		after := before + input.Delta
		if after < 0 {
			return domain.ErrInvalidInput
		}

		unitCost := stock.UnitCost
		if input.Delta > 0 {
			if input.UnitCost != nil {
				if input.UnitCost.IsNegative() {
					return domain.ErrInvalidInput
				}
				unitCost = *input.UnitCost
				stock.UnitCost = invdomain.WeightedAverageCost(
					decimal.NewFromInt(before), stock.UnitCost,
					decimal.NewFromInt(input.Delta), unitCost,
				)
			}
			stock.LastInAt = &now
		} else {
			stock.LastOutAt = &now
		}
		stock.Quantity = after
		stock.UpdatedAt = now
		if err := r.UnitStocks.Upsert(ctx, stock); err != nil {
			return err
		}

		kind := entity.MovementAdjustmentIn
		if input.Delta < 0 {
			kind = entity.MovementAdjustmentOut
		}
		qty := decimal.NewFromInt(input.Delta)
		movement = &entity.UnitMovement{
			ID:        uuid.New().String(),
			ProductID: input.ProductID,
			Kind:      kind,
			Quantity:  input.Delta,
			QtyBefore: before,
			QtyAfter:  after,
			UnitCost:  unitCost,
			TotalCost: qty.Mul(unitCost),
			Note:      input.Note,
			CreatedBy: input.UserID,
			CreatedAt: now,
		}
		if err := r.UnitMovs.Create(ctx, movement); err != nil {
			return err
		}

		_, created, err := uc.status.RecomputeInTx(ctx, r, product, "ajuste manual")
		if err != nil {
			return err
		}
		alerts = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.status.PublishAlerts(ctx, alerts)
	return movement, nil
}
