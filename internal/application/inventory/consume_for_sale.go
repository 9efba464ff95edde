package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/commercebox/quintal-core/internal/domain"
	"github.com/commercebox/quintal-core/internal/domain/entity"
	invdomain "github.com/commercebox/quintal-core/internal/domain/inventory"
	"github.com/commercebox/quintal-core/internal/domain/repository"
	"github.com/commercebox/quintal-core/pkg/logger"
)

// maxAllocationRetries reintentos del ciclo plan+aplicación ante conflicto de
// concurrencia. Un conflicto que persiste tras agotarlos equivale
// operativamente a stock insuficiente.
const maxAllocationRetries = 3

// ConsumeForSaleUseCase orquesta el consumo de inventario de una línea de
// venta: plan FIFO + aplicación + recálculo de semáforo, todo en una
// transacción. Nunca sobrevende: si el plan no cubre lo solicitado, la línea
// completa se rechaza sin tocar ningún quintal.
type ConsumeForSaleUseCase struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	lotRepo     repository.LotRepository // lecturas fuera de tx (preview POS)
	status      StatusRecomputer
	log         *logger.Logger
}

// NewConsumeForSaleUseCase construye el orquestador.
func NewConsumeForSaleUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	lotRepo repository.LotRepository,
	status StatusRecomputer,
	log *logger.Logger,
) *ConsumeForSaleUseCase {
	return &ConsumeForSaleUseCase{
		txRunner:    txRunner,
		productRepo: productRepo,
		lotRepo:     lotRepo,
		status:      status,
		log:         log,
	}
}

// ConsumeInput entrada para consumir inventario por una línea de venta.
// Weight aplica a productos por quintal; Quantity a productos por unidades.
type ConsumeInput struct {
	ProductID string
	Weight    decimal.Decimal
	Quantity  int64
	SaleRef   string
	UserID    string
	Note      string
}

// ConsumptionResult efecto de inventario de una línea de venta confirmada.
type ConsumptionResult struct {
	SaleRef       string
	ProductID     string
	TrackingMode  string
	WeightDrawn   decimal.Decimal
	QuantityDrawn int64
	LotMovements  []*entity.LotMovement
	UnitMovement  *entity.UnitMovement
	Status        *entity.StockStatus
}

// Consume ejecuta el consumo atómico. Para productos por quintal reintenta el
// ciclo completo (plan fresco + aplicación) hasta maxAllocationRetries veces
// ante ConcurrencyConflictError; el conflicto es invisible para el usuario
// final salvo como una breve demora.
func (uc *ConsumeForSaleUseCase) Consume(ctx context.Context, input ConsumeInput) (*ConsumptionResult, error) {
	if input.ProductID == "" || input.SaleRef == "" || input.UserID == "" {
		return nil, domain.ErrInvalidInput
	}
	product, err := uc.productRepo.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.Active {
		return nil, domain.ErrNotFound
	}

	if product.IsLotTracked() {
		return uc.consumeLots(ctx, product, input)
	}
	return uc.consumeUnits(ctx, product, input)
}

func (uc *ConsumeForSaleUseCase) consumeLots(ctx context.Context, product *entity.Product, input ConsumeInput) (*ConsumptionResult, error) {
	if !input.Weight.IsPositive() {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	result := &ConsumptionResult{
		SaleRef:      input.SaleRef,
		ProductID:    product.ID,
		TrackingMode: entity.TrackingModeLot,
		WeightDrawn:  input.Weight,
	}
	var alerts []*entity.Alert

	var lastConflict *domain.ConcurrencyConflictError
	for attempt := 1; attempt <= maxAllocationRetries; attempt++ {
		err := uc.txRunner.Run(ctx, func(r TxRepos) error {
			lots, err := r.Lots.AvailableByProduct(ctx, product.ID)
			if err != nil {
				return err
			}
			plan, err := invdomain.BuildPlan(product.ID, lots, input.Weight)
			if err != nil {
				return err
			}
			movs, err := applyPlan(ctx, r, plan, entity.MovementSale, input.SaleRef, input.UserID, input.Note, now)
			if err != nil {
				return err
			}
			status, created, err := uc.status.RecomputeInTx(ctx, r, product, "venta "+input.SaleRef)
			if err != nil {
				return err
			}
			result.LotMovements = movs
			result.Status = status
			alerts = created
			return nil
		})
		if err == nil {
			uc.status.PublishAlerts(ctx, alerts)
			return result, nil
		}

		var conflict *domain.ConcurrencyConflictError
		if errors.As(err, &conflict) {
			lastConflict = conflict
			uc.log.Warn().
				Str("product_id", product.ID).
				Str("lot_id", conflict.LotID).
				Int("attempt", attempt).
				Msg("conflicto de concurrencia al aplicar plan FIFO, reintentando")
			continue
		}
		return nil, err
	}

	// Reintentos agotados: reportar como stock insuficiente con la
	// disponibilidad observada más reciente.
	available, err := uc.TotalAvailable(ctx, product.ID)
	if err != nil {
		available = lastConflict.Available
	}
	return nil, &domain.InsufficientStockError{
		ProductID: product.ID,
		Requested: input.Weight,
		Available: available,
	}
}

func (uc *ConsumeForSaleUseCase) consumeUnits(ctx context.Context, product *entity.Product, input ConsumeInput) (*ConsumptionResult, error) {
	if input.Quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	result := &ConsumptionResult{
		SaleRef:       input.SaleRef,
		ProductID:     product.ID,
		TrackingMode:  entity.TrackingModeUnit,
		QuantityDrawn: input.Quantity,
	}
	var alerts []*entity.Alert

	err := uc.txRunner.Run(ctx, func(r TxRepos) error {
		stock, err := r.UnitStocks.GetForUpdate(ctx, product.ID)
		if err != nil {
			return err
		}
		if stock == nil {
			stock = &entity.UnitStock{ProductID: product.ID}
		}
		if stock.Quantity < input.Quantity {
			return &domain.InsufficientStockError{
				ProductID: product.ID,
				Requested: decimal.NewFromInt(input.Quantity),
				Available: decimal.NewFromInt(stock.Quantity),
			}
		}

		before := stock.Quantity
		stock.Quantity = before - input.Quantity
		stock.LastOutAt = &now
		stock.UpdatedAt = now
		if err := r.UnitStocks.Upsert(ctx, stock); err != nil {
			return err
		}

		// La venta sale al costo promedio vigente; el promedio solo se
		// recalcula en entradas.
		qty := decimal.NewFromInt(input.Quantity)
		mov := &entity.UnitMovement{
			ID:        uuid.New().String(),
			ProductID: product.ID,
			Kind:      entity.MovementSale,
			Quantity:  -input.Quantity,
			QtyBefore: before,
			QtyAfter:  stock.Quantity,
			UnitCost:  stock.UnitCost,
			TotalCost: qty.Neg().Mul(stock.UnitCost),
			SaleRef:   input.SaleRef,
			Note:      input.Note,
			CreatedBy: input.UserID,
			CreatedAt: now,
		}
		if err := r.UnitMovs.Create(ctx, mov); err != nil {
			return err
		}

		status, created, err := uc.status.RecomputeInTx(ctx, r, product, "venta "+input.SaleRef)
		if err != nil {
			return err
		}
		result.UnitMovement = mov
		result.Status = status
		alerts = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.status.PublishAlerts(ctx, alerts)
	return result, nil
}

// PreviewAllocation calcula el plan FIFO sin aplicarlo (previsualización POS).
// El plan no debe reutilizarse para confirmar: Consume calcula el suyo propio
// dentro de la transacción.
func (uc *ConsumeForSaleUseCase) PreviewAllocation(ctx context.Context, productID string, weight decimal.Decimal) (*invdomain.AllocationPlan, error) {
	lots, err := uc.lotRepo.AvailableByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return invdomain.BuildPlan(productID, lots, weight)
}

// TotalAvailable peso total disponible de un producto por quintal.
func (uc *ConsumeForSaleUseCase) TotalAvailable(ctx context.Context, productID string) (decimal.Decimal, error) {
	lots, err := uc.lotRepo.AvailableByProduct(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return invdomain.TotalAvailable(lots), nil
}
