package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/commercebox/quintal-core/internal/domain"
	"github.com/commercebox/quintal-core/internal/domain/entity"
	"github.com/commercebox/quintal-core/internal/domain/repository"
)

// ReportUseCase consultas de trazabilidad y reportes de inventario. Solo
// lectura: opera sobre repositorios atados al pool, sin transacciones.
type ReportUseCase struct {
	lotRepo     repository.LotRepository
	lotMovRepo  repository.LotMovementRepository
	unitMovRepo repository.UnitMovementRepository
	statusRepo  repository.StockStatusRepository
}

// NewReportUseCase construye el caso de uso.
func NewReportUseCase(
	lotRepo repository.LotRepository,
	lotMovRepo repository.LotMovementRepository,
	unitMovRepo repository.UnitMovementRepository,
	statusRepo repository.StockStatusRepository,
) *ReportUseCase {
	return &ReportUseCase{
		lotRepo:     lotRepo,
		lotMovRepo:  lotMovRepo,
		unitMovRepo: unitMovRepo,
		statusRepo:  statusRepo,
	}
}

// LotHistory historial completo de un quintal: quién lo proveyó, cuándo entró
// y cada movimiento que lo tocó.
type LotHistory struct {
	Lot         *entity.Lot           `json:"quintal"`
	Movements   []*entity.LotMovement `json:"movimientos"`
	WeightSold  decimal.Decimal       `json:"peso_vendido"`
	PercentLeft decimal.Decimal       `json:"porcentaje_restante"`
}

// History devuelve el historial de un quintal por id.
func (uc *ReportUseCase) History(ctx context.Context, lotID string) (*LotHistory, error) {
	lot, err := uc.lotRepo.GetByID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, domain.ErrNotFound
	}
	movs, err := uc.lotMovRepo.ListByLot(ctx, lotID)
	if err != nil {
		return nil, err
	}
	return &LotHistory{
		Lot:         lot,
		Movements:   movs,
		WeightSold:  lot.WeightSold(),
		PercentLeft: lot.PercentRemaining().Round(2),
	}, nil
}

// TracedLotItem porción de una venta atribuida a un quintal concreto.
type TracedLotItem struct {
	LotID       string          `json:"quintal_id"`
	LotCode     string          `json:"codigo"`
	SupplierID  string          `json:"proveedor_id"`
	SupplierLot string          `json:"lote_proveedor,omitempty"`
	Origin      string          `json:"origen,omitempty"`
	Weight      decimal.Decimal `json:"peso"`
	CostPerUnit decimal.Decimal `json:"costo_unitario"`
	CostBasis   decimal.Decimal `json:"costo"`
}

// TracedUnitItem porción de una venta servida desde stock por unidades.
type TracedUnitItem struct {
	ProductID string          `json:"producto_id"`
	Quantity  int64           `json:"cantidad"`
	UnitCost  decimal.Decimal `json:"costo_unitario"`
	CostBasis decimal.Decimal `json:"costo"`
}

// SaleTrace descompone una venta en los quintales y stocks que la sirvieron,
// con el costo exacto de cada porción (trazabilidad origen a venta).
type SaleTrace struct {
	SaleRef   string           `json:"referencia_venta"`
	LotItems  []TracedLotItem  `json:"quintales,omitempty"`
	UnitItems []TracedUnitItem `json:"unidades,omitempty"`
	TotalCost decimal.Decimal  `json:"costo_total"`
}

// TraceSale reconstruye la trazabilidad de una venta desde los libros de
// movimientos. ErrNotFound si la referencia no registró consumos.
func (uc *ReportUseCase) TraceSale(ctx context.Context, saleRef string) (*SaleTrace, error) {
	lotMovs, err := uc.lotMovRepo.ListBySaleRef(ctx, saleRef)
	if err != nil {
		return nil, err
	}
	unitMovs, err := uc.unitMovRepo.ListBySaleRef(ctx, saleRef)
	if err != nil {
		return nil, err
	}

	trace := &SaleTrace{SaleRef: saleRef, TotalCost: decimal.Zero}
	for _, m := range lotMovs {
		if m.Kind != entity.MovementSale {
			continue
		}
		lot, err := uc.lotRepo.GetByID(ctx, m.LotID)
		if err != nil {
			return nil, err
		}
		if lot == nil {
			return nil, &domain.InvariantViolationError{LotID: m.LotID, Detail: "quintal con movimientos pero inexistente"}
		}
		weight := m.Delta.Neg() // la venta registró delta negativo
		cost := weight.Mul(lot.CostPerUnit).Round(2)
		trace.LotItems = append(trace.LotItems, TracedLotItem{
			LotID:       lot.ID,
			LotCode:     lot.Code,
			SupplierID:  lot.SupplierID,
			SupplierLot: lot.SupplierLot,
			Origin:      lot.Origin,
			Weight:      weight,
			CostPerUnit: lot.CostPerUnit,
			CostBasis:   cost,
		})
		trace.TotalCost = trace.TotalCost.Add(cost)
	}
	for _, m := range unitMovs {
		if m.Kind != entity.MovementSale {
			continue
		}
		qty := -m.Quantity
		cost := decimal.NewFromInt(qty).Mul(m.UnitCost).Round(2)
		trace.UnitItems = append(trace.UnitItems, TracedUnitItem{
			ProductID: m.ProductID,
			Quantity:  qty,
			UnitCost:  m.UnitCost,
			CostBasis: cost,
		})
		trace.TotalCost = trace.TotalCost.Add(cost)
	}
	if len(trace.LotItems) == 0 && len(trace.UnitItems) == 0 {
		return nil, domain.ErrNotFound
	}
	return trace, nil
}

// RequiringAttention productos cuyo semáforo está fuera de NORMAL.
func (uc *ReportUseCase) RequiringAttention(ctx context.Context) ([]*entity.StockStatus, error) {
	return uc.statusRepo.RequiringAttention(ctx)
}

// ValuationRow valor de inventario de un producto.
type ValuationRow struct {
	ProductID    string          `json:"producto_id"`
	TrackingMode string          `json:"modo"`
	State        string          `json:"estado"`
	Value        decimal.Decimal `json:"valor"`
}

// Valuation reporte de valorización del inventario al costo de adquisición
// (quintales a su costo de recepción, unidades al promedio ponderado).
type Valuation struct {
	Rows       []ValuationRow  `json:"productos"`
	TotalValue decimal.Decimal `json:"valor_total"`
	ComputedAt time.Time       `json:"calculado_en"`
}

// InventoryValuation suma el valor de inventario sobre los estados derivados.
func (uc *ReportUseCase) InventoryValuation(ctx context.Context) (*Valuation, error) {
	statuses, err := uc.statusRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	report := &Valuation{TotalValue: decimal.Zero, ComputedAt: time.Now()}
	for _, s := range statuses {
		report.Rows = append(report.Rows, ValuationRow{
			ProductID:    s.ProductID,
			TrackingMode: s.TrackingMode,
			State:        s.State,
			Value:        s.InventoryValue,
		})
		report.TotalValue = report.TotalValue.Add(s.InventoryValue)
	}
	return report, nil
}

// ExpiringLot quintal próximo a vencer con su urgencia.
type ExpiringLot struct {
	Lot    *entity.Lot `json:"quintal"`
	Days   int         `json:"dias_para_vencer"`
	Urgent bool        `json:"urgente"`
}

// ExpiringLots quintales disponibles que vencen dentro de la ventana.
func (uc *ReportUseCase) ExpiringLots(ctx context.Context, days int) ([]ExpiringLot, error) {
	now := time.Now()
	lots, err := uc.lotRepo.Expiring(ctx, now, days)
	if err != nil {
		return nil, err
	}
	out := make([]ExpiringLot, 0, len(lots))
	for _, lot := range lots {
		d := lot.DaysToExpiry(now)
		out = append(out, ExpiringLot{Lot: lot, Days: d, Urgent: d >= 0 && d <= 3})
	}
	return out, nil
}

// ListLots listado paginado de quintales de un producto (histórico incluido).
func (uc *ReportUseCase) ListLots(ctx context.Context, productID string, limit, offset int) ([]*entity.Lot, error) {
	return uc.lotRepo.ListByProduct(ctx, productID, limit, offset)
}
