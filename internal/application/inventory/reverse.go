package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/commercebox/quintal-core/internal/domain"
	"github.com/commercebox/quintal-core/internal/domain/entity"
	"github.com/commercebox/quintal-core/internal/domain/repository"
)

// ReverseConsumptionUseCase devuelve al inventario lo consumido por una venta
// anulada. Restaura el peso exacto en cada quintal de origen y la cantidad en
// el stock por unidades, registrando movimientos DEVOLUCION enlazados a la
// misma referencia de venta.
type ReverseConsumptionUseCase struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	status      StatusRecomputer
}

// NewReverseConsumptionUseCase construye el caso de uso.
func NewReverseConsumptionUseCase(txRunner TxRunner, productRepo repository.ProductRepository, status StatusRecomputer) *ReverseConsumptionUseCase {
	return &ReverseConsumptionUseCase{txRunner: txRunner, productRepo: productRepo, status: status}
}

// ReversalResult resumen de una reversión aplicada.
type ReversalResult struct {
	SaleRef        string                 `json:"referencia_venta"`
	LotMovements   []*entity.LotMovement  `json:"movimientos_quintal,omitempty"`
	UnitMovements  []*entity.UnitMovement `json:"movimientos_unidad,omitempty"`
	WeightRestored decimal.Decimal        `json:"peso_restaurado"`
	QtyRestored    int64                  `json:"cantidad_restaurada"`
}

// Reverse revierte todos los consumos registrados para la referencia de venta.
// Idempotente por rechazo: si ya existe una devolución para la referencia
// retorna ErrConflict sin tocar nada.
func (uc *ReverseConsumptionUseCase) Reverse(ctx context.Context, saleRef, userID, note string) (*ReversalResult, error) {
	if saleRef == "" || userID == "" {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	result := &ReversalResult{SaleRef: saleRef, WeightRestored: decimal.Zero}
	var alerts []*entity.Alert

	err := uc.txRunner.Run(ctx, func(r TxRepos) error {
		lotMovs, err := r.LotMovs.ListBySaleRef(ctx, saleRef)
		if err != nil {
			return err
		}
		unitMovs, err := r.UnitMovs.ListBySaleRef(ctx, saleRef)
		if err != nil {
			return err
		}

		var lotSales []*entity.LotMovement
		for _, m := range lotMovs {
			switch m.Kind {
			case entity.MovementReturn:
				return domain.ErrConflict
			case entity.MovementSale:
				lotSales = append(lotSales, m)
			}
		}
		var unitSales []*entity.UnitMovement
		for _, m := range unitMovs {
			switch m.Kind {
			case entity.MovementReturn:
				return domain.ErrConflict
			case entity.MovementSale:
				unitSales = append(unitSales, m)
			}
		}
		if len(lotSales) == 0 && len(unitSales) == 0 {
			return domain.ErrNotFound
		}

		// productos afectados, para recalcular el semáforo una sola vez cada uno
		products := make(map[string]bool)

		for _, sale := range lotSales {
			lot, err := r.Lots.GetForUpdate(ctx, sale.LotID)
			if err != nil {
				return err
			}
			if lot == nil {
				return &domain.InvariantViolationError{LotID: sale.LotID, Detail: "quintal con movimientos pero inexistente"}
			}

			restore := sale.Delta.Neg() // la venta registró delta negativo
			before := lot.CurrentWeight
			after := before.Add(restore)
			if after.GreaterThan(lot.InitialWeight) {
				return &domain.InvariantViolationError{
					LotID:  lot.ID,
					Detail: "la devolución supera el peso inicial: " + after.String() + " > " + lot.InitialWeight.String(),
				}
			}

			lot.CurrentWeight = after
			if lot.State == entity.LotStateDepleted && after.GreaterThan(decimal.Zero) {
				lot.State = entity.LotStateAvailable
			}
			lot.UpdatedAt = now
			if err := r.Lots.UpdateWeight(ctx, lot); err != nil {
				return err
			}

			mov, err := recordLotMovement(ctx, r, lot, entity.MovementReturn, restore, before, saleRef, userID, note, now)
			if err != nil {
				return err
			}
			result.LotMovements = append(result.LotMovements, mov)
			result.WeightRestored = result.WeightRestored.Add(restore)
			products[lot.ProductID] = true
		}

		for _, sale := range unitSales {
			stock, err := r.UnitStocks.GetForUpdate(ctx, sale.ProductID)
			if err != nil {
				return err
			}
			if stock == nil {
				stock = &entity.UnitStock{ProductID: sale.ProductID, UnitCost: sale.UnitCost}
			}

			restore := -sale.Quantity // la venta registró cantidad negativa
			before := stock.Quantity
			stock.Quantity = before + restore
			stock.LastInAt = &now
			stock.UpdatedAt = now
			if err := r.UnitStocks.Upsert(ctx, stock); err != nil {
				return err
			}

			qty := decimal.NewFromInt(restore)
			mov := &entity.UnitMovement{
				ID:        uuid.New().String(),
				ProductID: sale.ProductID,
				Kind:      entity.MovementReturn,
				Quantity:  restore,
				QtyBefore: before,
				QtyAfter:  stock.Quantity,
				UnitCost:  sale.UnitCost,
				TotalCost: qty.Mul(sale.UnitCost),
				SaleRef:   saleRef,
				Note:      note,
				CreatedBy: userID,
				CreatedAt: now,
			}
			if err := r.UnitMovs.Create(ctx, mov); err != nil {
				return err
			}
			result.UnitMovements = append(result.UnitMovements, mov)
			result.QtyRestored += restore
			products[sale.ProductID] = true
		}

		for productID := range products {
			product, err := uc.productRepo.GetByID(ctx, productID)
			if err != nil {
				return err
			}
			_, created, err := uc.status.RecomputeInTx(ctx, r, product, "devolución de venta "+saleRef)
			if err != nil {
				return err
			}
			alerts = append(alerts, created...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.status.PublishAlerts(ctx, alerts)
	return result, nil
}
