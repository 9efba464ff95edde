package reports_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercebox/quintal-core/internal/application/reports"
	"github.com/commercebox/quintal-core/internal/domain"
	"github.com/commercebox/quintal-core/internal/domain/entity"
	"github.com/commercebox/quintal-core/internal/infrastructure/memory"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newReportFixture() (*reports.ReportUseCase, *memory.Store) {
	store := memory.NewStore()
	repos := store.Repos()
	uc := reports.NewReportUseCase(repos.Lots, repos.LotMovs, repos.UnitMovs, repos.Statuses)
	return uc, store
}

func seedTracedSale(store *memory.Store) {
	w := dec("100")
	store.AddLot(&entity.Lot{
		ID: "q1", Code: "QNT-20260810-AB12CD34", ProductID: "arroz", SupplierID: "prov-1",
		InitialWeight: w, CurrentWeight: dec("70"), UnitID: "kg",
		CostPerUnit: dec("2.50"), TotalCost: w.Mul(dec("2.50")),
		SupplierLot: "L-55", Origin: "Tolima",
		ReceivedAt: time.Now().AddDate(0, 0, -4), State: entity.LotStateAvailable,
	})
	repos := store.Repos()
	ctx := context.Background()
	_ = repos.LotMovs.Create(ctx, &entity.LotMovement{
		ID: "m1", LotID: "q1", Kind: entity.MovementReceipt,
		Delta: dec("100"), WeightBefore: decimal.Zero, WeightAfter: dec("100"),
		CreatedBy: "bodeguero-1", CreatedAt: time.Now().Add(-2 * time.Hour),
	})
	_ = repos.LotMovs.Create(ctx, &entity.LotMovement{
		ID: "m2", LotID: "q1", Kind: entity.MovementSale,
		Delta: dec("-30"), WeightBefore: dec("100"), WeightAfter: dec("70"),
		SaleRef: "venta-200", CreatedBy: "cajero-1", CreatedAt: time.Now().Add(-time.Hour),
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Trazabilidad
// ──────────────────────────────────────────────────────────────────────────────

// La traza reconstruye de qué quintal salió la venta, con procedencia y costo.
func TestTraceSale_ReconstruyeOrigenYCosto(t *testing.T) {
	uc, store := newReportFixture()
	seedTracedSale(store)

	trace, err := uc.TraceSale(context.Background(), "venta-200")
	require.NoError(t, err)
	require.Len(t, trace.LotItems, 1)

	item := trace.LotItems[0]
	assert.Equal(t, "q1", item.LotID)
	assert.Equal(t, "QNT-20260810-AB12CD34", item.LotCode)
	assert.Equal(t, "prov-1", item.SupplierID)
	assert.Equal(t, "L-55", item.SupplierLot)
	assert.Equal(t, "Tolima", item.Origin)
	assert.True(t, item.Weight.Equal(dec("30")))
	assert.True(t, item.CostBasis.Equal(dec("75")), "30kg * 2.50, fue %s", item.CostBasis)
	assert.True(t, trace.TotalCost.Equal(dec("75")))
}

func TestTraceSale_ReferenciaDesconocida(t *testing.T) {
	uc, _ := newReportFixture()

	_, err := uc.TraceSale(context.Background(), "venta-fantasma")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHistory_IncluyeMovimientosEnOrden(t *testing.T) {
	uc, store := newReportFixture()
	seedTracedSale(store)

	history, err := uc.History(context.Background(), "q1")
	require.NoError(t, err)
	require.Len(t, history.Movements, 2)
	assert.Equal(t, entity.MovementReceipt, history.Movements[0].Kind)
	assert.Equal(t, entity.MovementSale, history.Movements[1].Kind)
	assert.True(t, history.WeightSold.Equal(dec("30")))
	assert.True(t, history.PercentLeft.Equal(dec("70")))
}

func TestHistory_QuintalInexistente(t *testing.T) {
	uc, _ := newReportFixture()

	_, err := uc.History(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Valorización y vencimientos
// ──────────────────────────────────────────────────────────────────────────────

func TestInventoryValuation_SumaLosEstados(t *testing.T) {
	uc, store := newReportFixture()
	repos := store.Repos()
	ctx := context.Background()
	require.NoError(t, repos.Statuses.Upsert(ctx, &entity.StockStatus{
		ProductID: "arroz", TrackingMode: entity.TrackingModeLot,
		State: entity.StatusNormal, InventoryValue: dec("175.00"),
	}))
	require.NoError(t, repos.Statuses.Upsert(ctx, &entity.StockStatus{
		ProductID: "aceite", TrackingMode: entity.TrackingModeUnit,
		State: entity.StatusLow, InventoryValue: dec("27.00"),
	}))

	report, err := uc.InventoryValuation(ctx)
	require.NoError(t, err)
	assert.Len(t, report.Rows, 2)
	assert.True(t, report.TotalValue.Equal(dec("202.00")), "fue %s", report.TotalValue)
}

func TestExpiringLots_MarcaUrgencia(t *testing.T) {
	uc, store := newReportFixture()
	soon := time.Now().AddDate(0, 0, 2)
	later := time.Now().AddDate(0, 0, 6)
	for i, exp := range []*time.Time{&soon, &later} {
		w := dec("50")
		store.AddLot(&entity.Lot{
			ID: []string{"q-urgente", "q-proximo"}[i], Code: "QNT-X", ProductID: "arroz",
			InitialWeight: w, CurrentWeight: w, ExpiresAt: exp,
			ReceivedAt: time.Now().AddDate(0, 0, -10), State: entity.LotStateAvailable,
		})
	}

	out, err := uc.ExpiringLots(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "q-urgente", out[0].Lot.ID, "ordenado por fecha de vencimiento")
	assert.True(t, out[0].Urgent)
	assert.False(t, out[1].Urgent)
}
