package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appinv "github.com/commercebox/quintal-core/internal/application/inventory"
	"github.com/commercebox/quintal-core/internal/domain"
	"github.com/commercebox/quintal-core/internal/domain/entity"
	invdomain "github.com/commercebox/quintal-core/internal/domain/inventory"
	"github.com/commercebox/quintal-core/internal/domain/repository"
	"github.com/commercebox/quintal-core/pkg/logger"
)

// StatusUseCase calcula el semáforo de stock por producto y emite alertas en
// las transiciones a peor. Implementa inventory.StatusRecomputer para que los
// casos de uso de inventario recalculen dentro de su propia transacción.
//
// El estado es una caché derivada: cualquier recálculo parte de los quintales
// o del stock por unidades, nunca del estado anterior.
type StatusUseCase struct {
	txRunner    appinv.TxRunner
	productRepo repository.ProductRepository
	publisher   AlertPublisher
	thresholds  invdomain.Thresholds
	log         *logger.Logger
}

// NewStatusUseCase construye el caso de uso. publisher puede ser nil
// (despliegues sin broker de eventos).
func NewStatusUseCase(
	txRunner appinv.TxRunner,
	productRepo repository.ProductRepository,
	publisher AlertPublisher,
	thresholds invdomain.Thresholds,
	log *logger.Logger,
) *StatusUseCase {
	return &StatusUseCase{
		txRunner:    txRunner,
		productRepo: productRepo,
		publisher:   publisher,
		thresholds:  thresholds,
		log:         log,
	}
}

// RecomputeInTx recalcula el estado del producto usando los repositorios de la
// transacción del caller. Devuelve las alertas creadas para publicarlas
// después del commit; crearlas dentro de la tx garantiza que alerta y estado
// se confirmen juntos.
func (uc *StatusUseCase) RecomputeInTx(ctx context.Context, r appinv.TxRepos, product *entity.Product, reason string) (*entity.StockStatus, []*entity.Alert, error) {
	if product == nil {
		return nil, nil, domain.ErrNotFound
	}
	now := time.Now()

	prev, err := r.Statuses.Get(ctx, product.ID)
	if err != nil {
		return nil, nil, err
	}
	prevState := entity.StatusNormal
	prevStock := decimal.Zero
	if prev != nil {
		prevState = prev.State
		if prev.TrackingMode == entity.TrackingModeLot {
			prevStock = prev.TotalWeight
		} else {
			prevStock = decimal.NewFromInt(prev.Quantity)
		}
	}

	status := &entity.StockStatus{
		ProductID:    product.ID,
		TrackingMode: product.TrackingMode,
		ComputedAt:   now,
	}

	if product.IsLotTracked() {
		lots, err := r.Lots.ActiveByProduct(ctx, product.ID)
		if err != nil {
			return nil, nil, err
		}
		total, initial, value := decimal.Zero, decimal.Zero, decimal.Zero
		for _, lot := range lots {
			total = total.Add(lot.CurrentWeight)
			initial = initial.Add(lot.InitialWeight)
			value = value.Add(lot.CurrentWeight.Mul(lot.CostPerUnit))
			if lot.CurrentWeight.IsPositive() {
				status.LotCount++
			}
		}
		status.TotalWeight = total
		status.InitialWeight = initial
		status.InventoryValue = value.Round(2)
		status.State, status.PercentLeft = invdomain.LotState(total, initial, uc.thresholds)
	} else {
		stock, err := r.UnitStocks.Get(ctx, product.ID)
		if err != nil {
			return nil, nil, err
		}
		if stock == nil {
			stock = &entity.UnitStock{ProductID: product.ID}
		}
		status.Quantity = stock.Quantity
		status.Minimum = stock.Minimum
		status.InventoryValue = stock.Value().Round(2)
		status.State = invdomain.UnitState(stock.Quantity, stock.Minimum, uc.thresholds)
	}
	status.RequiresAttention = status.State != entity.StatusNormal

	status.ChangedAt = now
	if prev != nil && prev.State == status.State {
		status.ChangedAt = prev.ChangedAt
	}
	if err := r.Statuses.Upsert(ctx, status); err != nil {
		return nil, nil, err
	}

	if status.State == prevState {
		return status, nil, nil
	}

	stockAfter := status.TotalWeight
	if !product.IsLotTracked() {
		stockAfter = decimal.NewFromInt(status.Quantity)
	}
	change := &entity.StatusChange{
		ID:          uuid.New().String(),
		ProductID:   product.ID,
		FromState:   prevState,
		ToState:     status.State,
		Mode:        product.TrackingMode,
		StockBefore: prevStock,
		StockAfter:  stockAfter,
		Reason:      reason,
		CreatedAt:   now,
	}
	if err := r.Changes.Create(ctx, change); err != nil {
		return nil, nil, err
	}

	if !entity.StatusIsWorse(status.State, prevState) {
		// Mejora: no se resuelve en línea, el barrido lo hará.
		if err := r.Alerts.MarkAutoResolvable(ctx, product.ID); err != nil {
			return nil, nil, err
		}
		return status, nil, nil
	}

	alert, err := uc.emitWorseningAlert(ctx, r, product, status, now)
	if err != nil {
		return nil, nil, err
	}
	if alert == nil {
		return status, nil, nil
	}
	return status, []*entity.Alert{alert}, nil
}

func (uc *StatusUseCase) emitWorseningAlert(ctx context.Context, r appinv.TxRepos, product *entity.Product, status *entity.StockStatus, now time.Time) (*entity.Alert, error) {
	kind, priority := entity.AlertPriorityFor(status.State)
	if kind == "" {
		return nil, nil
	}
	exists, err := r.Alerts.ActiveExists(ctx, product.ID, kind, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	var detail string
	if product.IsLotTracked() {
		detail = fmt.Sprintf("queda %s%% del peso recibido (%s)", status.PercentLeft.Round(1), status.TotalWeight)
	} else {
		detail = fmt.Sprintf("quedan %d unidades (mínimo %d)", status.Quantity, status.Minimum)
	}
	alert := &entity.Alert{
		ID:        uuid.New().String(),
		ProductID: product.ID,
		Kind:      kind,
		Priority:  priority,
		Status:    entity.AlertActive,
		Title:     fmt.Sprintf("Stock %s: %s", status.State, product.Name),
		Message:   detail,
		CreatedAt: now,
	}
	if err := r.Alerts.Create(ctx, alert); err != nil {
		// Índice único parcial: otra tx concurrente ya creó la misma alerta.
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, nil
		}
		return nil, err
	}
	return alert, nil
}

// PublishAlerts publica las alertas confirmadas. Best-effort: los fallos se
// registran y no se propagan.
func (uc *StatusUseCase) PublishAlerts(ctx context.Context, alertList []*entity.Alert) {
	if uc.publisher == nil {
		return
	}
	for _, a := range alertList {
		if err := uc.publisher.PublishAlert(ctx, a); err != nil {
			uc.log.Error().Err(err).
				Str("alert_id", a.ID).
				Str("product_id", a.ProductID).
				Msg("error publicando alerta de stock")
		}
	}
}

// Recompute recalcula el estado de un producto en su propia transacción.
func (uc *StatusUseCase) Recompute(ctx context.Context, productID, reason string) (*entity.StockStatus, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}

	var status *entity.StockStatus
	var created []*entity.Alert
	err = uc.txRunner.Run(ctx, func(r appinv.TxRepos) error {
		status, created, err = uc.RecomputeInTx(ctx, r, product, reason)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.PublishAlerts(ctx, created)
	return status, nil
}

// RecomputeSummary resultado de un recálculo masivo.
type RecomputeSummary struct {
	Total     int `json:"total"`
	Processed int `json:"procesados"`
	Failed    int `json:"fallidos"`
}

// RecomputeAll recalcula el estado de todos los productos activos, cada uno en
// su propia transacción. Un fallo en un producto se registra y no detiene el
// resto del barrido.
func (uc *StatusUseCase) RecomputeAll(ctx context.Context, reason string) (*RecomputeSummary, error) {
	products, err := uc.productRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	summary := &RecomputeSummary{Total: len(products)}
	for _, product := range products {
		p := product
		var created []*entity.Alert
		err := uc.txRunner.Run(ctx, func(r appinv.TxRepos) error {
			_, alerts, err := uc.RecomputeInTx(ctx, r, p, reason)
			created = alerts
			return err
		})
		if err != nil {
			summary.Failed++
			uc.log.Error().Err(err).
				Str("product_id", p.ID).
				Msg("error recalculando estado de stock")
			continue
		}
		uc.PublishAlerts(ctx, created)
		summary.Processed++
	}
	return summary, nil
}
