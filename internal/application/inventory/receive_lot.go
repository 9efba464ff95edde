package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/commercebox/quintal-core/internal/domain"
	"github.com/commercebox/quintal-core/internal/domain/entity"
	"github.com/commercebox/quintal-core/internal/domain/repository"
)

// ReceiveLotUseCase registra la recepción de un quintal nuevo de forma
// transaccional: crea el quintal, escribe el movimiento sintético de RECEIPT
// (0 → peso inicial, por simetría de auditoría) y recalcula el semáforo del
// producto en la misma transacción (una recepción puede sacar al producto
// de DEPLETED).
type ReceiveLotUseCase struct {
	txRunner     TxRunner
	productRepo  repository.ProductRepository
	supplierRepo repository.SupplierRepository
	unitRepo     repository.WeightUnitRepository
	status       StatusRecomputer
}

// NewReceiveLotUseCase construye el caso de uso.
func NewReceiveLotUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	supplierRepo repository.SupplierRepository,
	unitRepo repository.WeightUnitRepository,
	status StatusRecomputer,
) *ReceiveLotUseCase {
	return &ReceiveLotUseCase{
		txRunner:     txRunner,
		productRepo:  productRepo,
		supplierRepo: supplierRepo,
		unitRepo:     unitRepo,
		status:       status,
	}
}

// ReceiveLotInput entrada para registrar la recepción de un quintal.
type ReceiveLotInput struct {
	ProductID     string
	SupplierID    string
	Weight        decimal.Decimal
	UnitID        string
	UnitCost      decimal.Decimal // costo por unidad de peso, inmutable tras la recepción
	ExpiresAt     *time.Time
	SupplierLot   string
	InvoiceNumber string
	Origin        string
	UserID        string
}

// ReceiveLot valida la entrada, crea el quintal con código único y lo deja
// AVAILABLE con peso_actual = peso_inicial. Falla con ErrInvalidInput si el
// peso o el costo no son positivos.
func (uc *ReceiveLotUseCase) ReceiveLot(ctx context.Context, input ReceiveLotInput) (*entity.Lot, error) {
	if !input.Weight.IsPositive() || !input.UnitCost.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	if input.ProductID == "" || input.SupplierID == "" || input.UserID == "" {
		return nil, domain.ErrInvalidInput
	}

	product, err := uc.productRepo.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.Active {
		return nil, domain.ErrNotFound
	}
	if !product.IsLotTracked() {
		return nil, domain.ErrInvalidInput
	}
	supplier, err := uc.supplierRepo.GetByID(ctx, input.SupplierID)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, domain.ErrNotFound
	}
	unitID := input.UnitID
	if unitID == "" {
		unitID = product.BaseUnitID
	}
	unit, err := uc.unitRepo.GetByID(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, &domain.InvalidUnitError{Unit: unitID}
	}

	now := time.Now()
	lot := &entity.Lot{
		ID:            uuid.New().String(),
		Code:          newLotCode(now),
		ProductID:     product.ID,
		SupplierID:    supplier.ID,
		InitialWeight: input.Weight,
		CurrentWeight: input.Weight,
		UnitID:        unit.ID,
		CostPerUnit:   input.UnitCost,
		TotalCost:     input.Weight.Mul(input.UnitCost).Round(2),
		ReceivedAt:    now,
		ExpiresAt:     input.ExpiresAt,
		SupplierLot:   input.SupplierLot,
		InvoiceNumber: input.InvoiceNumber,
		Origin:        input.Origin,
		State:         entity.LotStateAvailable,
		CreatedBy:     input.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var alerts []*entity.Alert
	err = uc.txRunner.Run(ctx, func(r TxRepos) error {
		if err := r.Lots.Create(ctx, lot); err != nil {
			return err
		}
		// Movimiento sintético de recepción: 0 → peso inicial
		if _, err := recordLotMovement(
			ctx, r, lot, entity.MovementReceipt, input.Weight, decimal.Zero,
			"", input.UserID, "recepción de quintal "+lot.Code, now,
		); err != nil {
			return err
		}
		_, created, err := uc.status.RecomputeInTx(ctx, r, product, "recepción de quintal")
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
	return lot, nil
}

// newLotCode genera un código único por contenido (fecha + sufijo aleatorio),
// seguro entre múltiples workers (sin contadores en proceso).
func newLotCode(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return "QNT-" + now.Format("20060102") + "-" + suffix
}
