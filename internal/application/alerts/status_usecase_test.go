package alerts_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercebox/quintal-core/internal/application/alerts"
	"github.com/commercebox/quintal-core/internal/domain/entity"
	invdomain "github.com/commercebox/quintal-core/internal/domain/inventory"
	"github.com/commercebox/quintal-core/internal/infrastructure/memory"
	"github.com/commercebox/quintal-core/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

// capturePublisher acumula las alertas publicadas tras el commit.
type capturePublisher struct {
	published []*entity.Alert
}

func (p *capturePublisher) PublishAlert(ctx context.Context, a *entity.Alert) error {
	p.published = append(p.published, a)
	return nil
}

type alertFixture struct {
	store     *memory.Store
	publisher *capturePublisher
	status    *alerts.StatusUseCase
	sweep     *alerts.SweepUseCase
}

func newAlertFixture() *alertFixture {
	store := memory.NewStore()
	runner := &memory.TxRunner{Store: store}
	publisher := &capturePublisher{}
	log := logger.Nop()
	th := invdomain.DefaultThresholds()

	return &alertFixture{
		store:     store,
		publisher: publisher,
		status:    alerts.NewStatusUseCase(runner, store.ProductRepo(), publisher, th, log),
		sweep:     alerts.NewSweepUseCase(runner, publisher, th, log),
	}
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (f *alertFixture) seedLotProduct(id string) *entity.Product {
	p := &entity.Product{
		ID: id, SKU: "SKU-" + id, Name: "Producto " + id,
		TrackingMode: entity.TrackingModeLot, BaseUnitID: "kg", Active: true,
	}
	f.store.AddProduct(p)
	return p
}

func (f *alertFixture) seedLot(id, productID, current, initial string, expiresAt *time.Time) {
	f.store.AddLot(&entity.Lot{
		ID:            id,
		Code:          "QNT-TEST-" + id,
		ProductID:     productID,
		InitialWeight: dec(initial),
		CurrentWeight: dec(current),
		CostPerUnit:   dec("2"),
		ReceivedAt:    time.Now().AddDate(0, 0, -7),
		ExpiresAt:     expiresAt,
		State:         entity.LotStateAvailable,
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Recomputación y transiciones
// ──────────────────────────────────────────────────────────────────────────────

// La caída al umbral crítico emite una sola alerta, registra la transición y
// la publica después de confirmar la transacción.
func TestRecompute_CaidaACriticoEmiteAlertaUnica(t *testing.T) {
	f := newAlertFixture()
	f.seedLotProduct("arroz")
	f.seedLot("q1", "arroz", "10", "100", nil)

	status, err := f.status.Recompute(context.Background(), "arroz", "barrido de prueba")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCritical, status.State)
	assert.True(t, status.PercentLeft.Equal(dec("10")))
	assert.True(t, status.RequiresAttention)

	active := f.store.ActiveAlerts()
	require.Len(t, active, 1)
	assert.Equal(t, entity.AlertStockCritical, active[0].Kind)
	assert.Equal(t, entity.PriorityHigh, active[0].Priority)

	require.Len(t, f.publisher.published, 1, "la alerta se publica tras el commit")
	assert.Equal(t, active[0].ID, f.publisher.published[0].ID)

	changes := f.store.StatusChanges()
	require.Len(t, changes, 1)
	assert.Equal(t, entity.StatusNormal, changes[0].FromState)
	assert.Equal(t, entity.StatusCritical, changes[0].ToState)

	// Recalcular sin cambios no duplica alerta ni transición.
	again, err := f.status.Recompute(context.Background(), "arroz", "segundo barrido")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCritical, again.State)
	assert.True(t, again.ChangedAt.Equal(status.ChangedAt), "ChangedAt se conserva si el estado no cambió")
	assert.Len(t, f.store.ActiveAlerts(), 1)
	assert.Len(t, f.store.StatusChanges(), 1)
	assert.Len(t, f.publisher.published, 1)
}

// Una mejora de estado no emite alerta: marca las existentes para que el
// barrido las resuelva después (resolución diferida).
func TestRecompute_MejoraMarcaAlertasResolubles(t *testing.T) {
	f := newAlertFixture()
	f.seedLotProduct("arroz")
	f.seedLot("q1", "arroz", "10", "100", nil)

	_, err := f.status.Recompute(context.Background(), "arroz", "caída")
	require.NoError(t, err)
	require.Len(t, f.store.ActiveAlerts(), 1)

	// Llega un quintal nuevo: 110/200 = 55% → NORMAL.
	f.seedLot("q2", "arroz", "100", "100", nil)
	status, err := f.status.Recompute(context.Background(), "arroz", "recepción")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusNormal, status.State)

	active := f.store.ActiveAlerts()
	require.Len(t, active, 1, "la alerta sigue activa hasta el barrido")
	assert.True(t, active[0].AutoResolvable)
	assert.Len(t, f.publisher.published, 1, "la mejora no publica nada nuevo")

	changes := f.store.StatusChanges()
	require.Len(t, changes, 2)
	assert.Equal(t, entity.StatusCritical, changes[1].FromState)
	assert.Equal(t, entity.StatusNormal, changes[1].ToState)

	resolved, err := f.sweep.ResolveStaleAlerts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, resolved)
	assert.Empty(t, f.store.ActiveAlerts())
}

func TestRecompute_ModoUnidades(t *testing.T) {
	f := newAlertFixture()
	f.store.AddProduct(&entity.Product{
		ID: "aceite", SKU: "ACE-1", Name: "Aceite",
		TrackingMode: entity.TrackingModeUnit, Active: true,
	})
	f.store.SetUnitStock(&entity.UnitStock{ProductID: "aceite", Quantity: 3, Minimum: 5, UnitCost: dec("3")})

	status, err := f.status.Recompute(context.Background(), "aceite", "barrido")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCritical, status.State)
	assert.True(t, status.InventoryValue.Equal(dec("9")))

	// Se agota: transición a peor emite una segunda alerta, ahora URGENT.
	f.store.SetUnitStock(&entity.UnitStock{ProductID: "aceite", Quantity: 0, Minimum: 5, UnitCost: dec("3")})
	status, err = f.status.Recompute(context.Background(), "aceite", "venta final")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDepleted, status.State)

	active := f.store.ActiveAlerts()
	require.Len(t, active, 2)
	kinds := map[string]string{active[0].Kind: active[0].Priority, active[1].Kind: active[1].Priority}
	assert.Equal(t, entity.PriorityHigh, kinds[entity.AlertStockCritical])
	assert.Equal(t, entity.PriorityUrgent, kinds[entity.AlertStockDepleted])
}

func TestRecomputeAll_ProcesaTodosLosProductos(t *testing.T) {
	f := newAlertFixture()
	f.seedLotProduct("arroz")
	f.seedLot("q1", "arroz", "80", "100", nil)
	f.store.AddProduct(&entity.Product{
		ID: "aceite", SKU: "ACE-1", Name: "Aceite",
		TrackingMode: entity.TrackingModeUnit, Active: true,
	})
	f.store.SetUnitStock(&entity.UnitStock{ProductID: "aceite", Quantity: 9, Minimum: 2, UnitCost: dec("3")})

	summary, err := f.status.RecomputeAll(context.Background(), "barrido nocturno")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 0, summary.Failed)

	for _, id := range []string{"arroz", "aceite"} {
		status, err := f.store.Repos().Statuses.Get(context.Background(), id)
		require.NoError(t, err)
		require.NotNil(t, status, "estado calculado para %s", id)
		assert.Equal(t, entity.StatusNormal, status.State)
	}
}
