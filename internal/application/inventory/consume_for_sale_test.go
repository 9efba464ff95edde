package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercebox/quintal-core/internal/application/alerts"
	appinv "github.com/commercebox/quintal-core/internal/application/inventory"
	"github.com/commercebox/quintal-core/internal/domain"
	"github.com/commercebox/quintal-core/internal/domain/entity"
	invdomain "github.com/commercebox/quintal-core/internal/domain/inventory"
	"github.com/commercebox/quintal-core/internal/domain/repository"
	"github.com/commercebox/quintal-core/internal/infrastructure/memory"
	"github.com/commercebox/quintal-core/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture: almacén en memoria + casos de uso cableados como en producción
// ──────────────────────────────────────────────────────────────────────────────

type fixture struct {
	store   *memory.Store
	consume *appinv.ConsumeForSaleUseCase
	receive *appinv.ReceiveLotUseCase
	adjust  *appinv.AdjustStockUseCase
	reverse *appinv.ReverseConsumptionUseCase
}

func newFixture() *fixture {
	store := memory.NewStore()
	runner := &memory.TxRunner{Store: store}
	log := logger.Nop()

	status := alerts.NewStatusUseCase(runner, store.ProductRepo(), nil, invdomain.DefaultThresholds(), log)
	repos := store.Repos()

	return &fixture{
		store:   store,
		consume: appinv.NewConsumeForSaleUseCase(runner, store.ProductRepo(), repos.Lots, status, log),
		receive: appinv.NewReceiveLotUseCase(runner, store.ProductRepo(), store.SupplierRepo(), store.WeightUnitRepo(), status),
		adjust:  appinv.NewAdjustStockUseCase(runner, store.ProductRepo(), status),
		reverse: appinv.NewReverseConsumptionUseCase(runner, store.ProductRepo(), status),
	}
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (f *fixture) seedLotProduct(id string) *entity.Product {
	p := &entity.Product{
		ID:           id,
		SKU:          "SKU-" + id,
		Name:         "Producto " + id,
		TrackingMode: entity.TrackingModeLot,
		BaseUnitID:   "kg",
		Active:       true,
	}
	f.store.AddProduct(p)
	return p
}

func (f *fixture) seedUnitProduct(id string, qty, min int64, avgCost string) *entity.Product {
	p := &entity.Product{
		ID:           id,
		SKU:          "SKU-" + id,
		Name:         "Producto " + id,
		TrackingMode: entity.TrackingModeUnit,
		Active:       true,
	}
	f.store.AddProduct(p)
	f.store.SetUnitStock(&entity.UnitStock{
		ProductID: id,
		Quantity:  qty,
		Minimum:   min,
		UnitCost:  dec(avgCost),
	})
	return p
}

func (f *fixture) seedLot(id, productID, weight string, receivedDaysAgo int) *entity.Lot {
	w := dec(weight)
	lot := &entity.Lot{
		ID:            id,
		Code:          "QNT-TEST-" + id,
		ProductID:     productID,
		SupplierID:    "prov-1",
		InitialWeight: w,
		CurrentWeight: w,
		UnitID:        "kg",
		CostPerUnit:   dec("2.50"),
		TotalCost:     w.Mul(dec("2.50")),
		ReceivedAt:    time.Now().AddDate(0, 0, -receivedDaysAgo),
		State:         entity.LotStateAvailable,
		CreatedBy:     "seed",
	}
	f.store.AddLot(lot)
	return lot
}

// ──────────────────────────────────────────────────────────────────────────────
// Consumo por quintales
// ──────────────────────────────────────────────────────────────────────────────

// Una venta mayor que el quintal más antiguo debe vaciarlo y continuar con el
// siguiente, dejando un movimiento por cada quintal tocado.
func TestConsume_VentaCruzaQuintales(t *testing.T) {
	f := newFixture()
	f.seedLotProduct("arroz")
	f.seedLot("q1", "arroz", "100", 10)
	f.seedLot("q2", "arroz", "50", 5)

	result, err := f.consume.Consume(context.Background(), appinv.ConsumeInput{
		ProductID: "arroz",
		Weight:    dec("120"),
		SaleRef:   "venta-001",
		UserID:    "cajero-1",
	})
	require.NoError(t, err)
	require.Len(t, result.LotMovements, 2)

	// Movimientos en orden FIFO con antes/después exactos.
	m1, m2 := result.LotMovements[0], result.LotMovements[1]
	assert.Equal(t, "q1", m1.LotID)
	assert.Equal(t, entity.MovementSale, m1.Kind)
	assert.True(t, m1.Delta.Equal(dec("-100")))
	assert.True(t, m1.WeightBefore.Equal(dec("100")))
	assert.True(t, m1.WeightAfter.IsZero())

	assert.Equal(t, "q2", m2.LotID)
	assert.True(t, m2.Delta.Equal(dec("-20")))
	assert.True(t, m2.WeightBefore.Equal(dec("50")))
	assert.True(t, m2.WeightAfter.Equal(dec("30")))

	// Estado persistido de los quintales.
	q1 := f.store.GetLot("q1")
	assert.True(t, q1.CurrentWeight.IsZero())
	assert.Equal(t, entity.LotStateDepleted, q1.State, "el quintal vaciado queda DEPLETED")
	q2 := f.store.GetLot("q2")
	assert.True(t, q2.CurrentWeight.Equal(dec("30")))
	assert.Equal(t, entity.LotStateAvailable, q2.State)

	// Semáforo recalculado en la misma transacción. El quintal agotado sale
	// de los agregados activos: queda q2 con 30/50.
	require.NotNil(t, result.Status)
	assert.Equal(t, entity.StatusNormal, result.Status.State)
	assert.True(t, result.Status.TotalWeight.Equal(dec("30")))
	assert.Equal(t, 1, result.Status.LotCount)
}

// Stock insuficiente: rechazo total, ningún quintal ni movimiento tocado.
func TestConsume_StockInsuficienteNoTocaNada(t *testing.T) {
	f := newFixture()
	f.seedLotProduct("maiz")
	f.seedLot("q1", "maiz", "30", 4)
	f.seedLot("q2", "maiz", "40", 2)

	result, err := f.consume.Consume(context.Background(), appinv.ConsumeInput{
		ProductID: "maiz",
		Weight:    dec("80"),
		SaleRef:   "venta-002",
		UserID:    "cajero-1",
	})
	require.Error(t, err)
	assert.Nil(t, result)

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Available.Equal(dec("70")))
	assert.True(t, insufficient.Shortfall().Equal(dec("10")))

	assert.True(t, f.store.GetLot("q1").CurrentWeight.Equal(dec("30")), "rollback completo")
	assert.True(t, f.store.GetLot("q2").CurrentWeight.Equal(dec("40")))
	assert.Empty(t, f.store.LotMovements(), "sin movimientos parciales")
}

func TestConsume_EntradaInvalida(t *testing.T) {
	f := newFixture()
	f.seedLotProduct("arroz")

	_, err := f.consume.Consume(context.Background(), appinv.ConsumeInput{
		ProductID: "arroz", Weight: decimal.Zero, SaleRef: "v", UserID: "u",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.consume.Consume(context.Background(), appinv.ConsumeInput{
		ProductID: "no-existe", Weight: dec("5"), SaleRef: "v", UserID: "u",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Conflicto de concurrencia y reintento
// ──────────────────────────────────────────────────────────────────────────────

// staleLotRepo devuelve en la primera lectura una vista desactualizada de los
// quintales (como si otra caja hubiera vendido entre el plan y la aplicación);
// las lecturas bajo bloqueo siempre ven el estado real.
type staleLotRepo struct {
	repository.LotRepository
	stale []*entity.Lot
	used  *bool
}

func (r *staleLotRepo) AvailableByProduct(ctx context.Context, productID string) ([]*entity.Lot, error) {
	if !*r.used {
		*r.used = true
		return r.stale, nil
	}
	return r.LotRepository.AvailableByProduct(ctx, productID)
}

type staleTxRunner struct {
	inner *memory.TxRunner
	stale []*entity.Lot
	used  *bool
}

func (t *staleTxRunner) Run(ctx context.Context, fn func(r appinv.TxRepos) error) error {
	return t.inner.Run(ctx, func(r appinv.TxRepos) error {
		r.Lots = &staleLotRepo{LotRepository: r.Lots, stale: t.stale, used: t.used}
		return fn(r)
	})
}

// El primer intento planifica sobre una vista vieja y choca al revalidar bajo
// bloqueo; el reintento planifica sobre el estado real y completa la venta.
func TestConsume_ReintentaTrasConflictoDeConcurrencia(t *testing.T) {
	f := newFixture()
	f.seedLotProduct("frijol")
	real1 := f.seedLot("q1", "frijol", "50", 10)
	real1.CurrentWeight = dec("10") // otra caja ya vendió 40kg
	f.store.AddLot(real1)
	f.seedLot("q2", "frijol", "100", 5)

	// Vista desactualizada: q1 todavía con 50kg.
	staleQ1 := *real1
	staleQ1.CurrentWeight = dec("50")
	used := false
	runner := &staleTxRunner{
		inner: &memory.TxRunner{Store: f.store},
		stale: []*entity.Lot{&staleQ1},
		used:  &used,
	}
	log := logger.Nop()
	status := alerts.NewStatusUseCase(runner, f.store.ProductRepo(), nil, invdomain.DefaultThresholds(), log)
	consume := appinv.NewConsumeForSaleUseCase(runner, f.store.ProductRepo(), f.store.Repos().Lots, status, log)

	result, err := consume.Consume(context.Background(), appinv.ConsumeInput{
		ProductID: "frijol",
		Weight:    dec("40"),
		SaleRef:   "venta-003",
		UserID:    "cajero-2",
	})
	require.NoError(t, err, "el conflicto debe resolverse con un reintento")
	assert.True(t, used, "el primer intento usó la vista desactualizada")

	// El plan del reintento tomó 10 de q1 y 30 de q2.
	require.Len(t, result.LotMovements, 2)
	assert.True(t, f.store.GetLot("q1").CurrentWeight.IsZero())
	assert.True(t, f.store.GetLot("q2").CurrentWeight.Equal(dec("70")))
}

// ──────────────────────────────────────────────────────────────────────────────
// Consumo por unidades
// ──────────────────────────────────────────────────────────────────────────────

func TestConsume_UnidadesDescuentaAlPromedio(t *testing.T) {
	f := newFixture()
	f.seedUnitProduct("aceite", 10, 2, "3.50")

	result, err := f.consume.Consume(context.Background(), appinv.ConsumeInput{
		ProductID: "aceite",
		Quantity:  3,
		SaleRef:   "venta-004",
		UserID:    "cajero-1",
	})
	require.NoError(t, err)
	require.NotNil(t, result.UnitMovement)

	mov := result.UnitMovement
	assert.Equal(t, entity.MovementSale, mov.Kind)
	assert.EqualValues(t, -3, mov.Quantity)
	assert.EqualValues(t, 10, mov.QtyBefore)
	assert.EqualValues(t, 7, mov.QtyAfter)
	assert.True(t, mov.UnitCost.Equal(dec("3.50")), "la venta sale al costo promedio vigente")
	assert.True(t, mov.TotalCost.Equal(dec("-10.50")))

	assert.Equal(t, entity.StatusNormal, result.Status.State)
	assert.EqualValues(t, 7, result.Status.Quantity)
}

func TestConsume_UnidadesInsuficientes(t *testing.T) {
	f := newFixture()
	f.seedUnitProduct("aceite", 2, 1, "3.50")

	_, err := f.consume.Consume(context.Background(), appinv.ConsumeInput{
		ProductID: "aceite",
		Quantity:  5,
		SaleRef:   "venta-005",
		UserID:    "cajero-1",
	})
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Available.Equal(dec("2")))
	assert.Empty(t, f.store.LotMovements())
}

// ──────────────────────────────────────────────────────────────────────────────
// Previsualización
// ──────────────────────────────────────────────────────────────────────────────

// La previsualización calcula el plan sin aplicar nada.
func TestPreviewAllocation_NoTocaElInventario(t *testing.T) {
	f := newFixture()
	f.seedLotProduct("arroz")
	f.seedLot("q1", "arroz", "100", 3)

	plan, err := f.consume.PreviewAllocation(context.Background(), "arroz", dec("60"))
	require.NoError(t, err)
	require.Len(t, plan.Entries, 1)
	assert.True(t, plan.Entries[0].Take.Equal(dec("60")))

	assert.True(t, f.store.GetLot("q1").CurrentWeight.Equal(dec("100")))
	assert.Empty(t, f.store.LotMovements())
}
