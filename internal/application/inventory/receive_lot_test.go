package inventory_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinv "github.com/commercebox/quintal-core/internal/application/inventory"
	"github.com/commercebox/quintal-core/internal/domain"
	"github.com/commercebox/quintal-core/internal/domain/entity"
)

func (f *fixture) seedCatalog() {
	f.store.AddSupplier(&entity.Supplier{ID: "prov-1", Name: "Agroinsumos del Valle", TaxID: "900123456", Active: true})
	f.store.AddWeightUnit(entity.WeightUnit{ID: "kg", Name: "Kilogramo", Abbreviation: "kg", FactorToKg: dec("1"), Active: true})
}

func TestReceiveLot_CreaQuintalConMovimientoSintetico(t *testing.T) {
	f := newFixture()
	f.seedLotProduct("arroz")
	f.seedCatalog()

	lot, err := f.receive.ReceiveLot(context.Background(), appinv.ReceiveLotInput{
		ProductID:     "arroz",
		SupplierID:    "prov-1",
		Weight:        dec("45.5"),
		UnitID:        "kg",
		UnitCost:      dec("2.30"),
		SupplierLot:   "L-778",
		InvoiceNumber: "FC-1020",
		Origin:        "Valle del Cauca",
		UserID:        "bodeguero-1",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(lot.Code, "QNT-"), "código con prefijo de quintal, fue %s", lot.Code)
	assert.True(t, lot.CurrentWeight.Equal(lot.InitialWeight))
	assert.Equal(t, entity.LotStateAvailable, lot.State)
	assert.True(t, lot.TotalCost.Equal(dec("104.65")), "45.5 * 2.30, fue %s", lot.TotalCost)

	movs := f.store.LotMovements()
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementReceipt, movs[0].Kind)
	assert.True(t, movs[0].WeightBefore.IsZero(), "la recepción parte de cero")
	assert.True(t, movs[0].WeightAfter.Equal(dec("45.5")))
}

// La fecha de vencimiento es opcional pero se conserva si viene.
func TestReceiveLot_ConservaVencimiento(t *testing.T) {
	f := newFixture()
	f.seedLotProduct("arroz")
	f.seedCatalog()

	expiry := time.Now().AddDate(0, 2, 0)
	lot, err := f.receive.ReceiveLot(context.Background(), appinv.ReceiveLotInput{
		ProductID:  "arroz",
		SupplierID: "prov-1",
		Weight:     dec("50"),
		UnitID:     "kg",
		UnitCost:   dec("2"),
		ExpiresAt:  &expiry,
		UserID:     "bodeguero-1",
	})
	require.NoError(t, err)
	require.NotNil(t, lot.ExpiresAt)
	assert.True(t, lot.ExpiresAt.Equal(expiry))
}

func TestReceiveLot_Validaciones(t *testing.T) {
	f := newFixture()
	f.seedLotProduct("arroz")
	f.seedUnitProduct("aceite", 5, 1, "3")
	f.seedCatalog()

	base := appinv.ReceiveLotInput{
		ProductID: "arroz", SupplierID: "prov-1", Weight: dec("10"),
		UnitID: "kg", UnitCost: dec("2"), UserID: "bodeguero-1",
	}

	in := base
	in.Weight = decimal.Zero
	_, err := f.receive.ReceiveLot(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "peso no positivo")

	in = base
	in.UnitCost = dec("-1")
	_, err = f.receive.ReceiveLot(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "costo no positivo")

	in = base
	in.ProductID = "aceite"
	_, err = f.receive.ReceiveLot(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "los productos por unidades no reciben quintales")

	in = base
	in.SupplierID = "prov-fantasma"
	_, err = f.receive.ReceiveLot(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	in = base
	in.UnitID = "fanega"
	_, err = f.receive.ReceiveLot(context.Background(), in)
	var invalid *domain.InvalidUnitError
	assert.ErrorAs(t, err, &invalid)
}

// Una recepción sobre un producto agotado lo saca de DEPLETED en la misma
// transacción.
func TestReceiveLot_SacaProductoDeAgotado(t *testing.T) {
	f := newFixture()
	f.seedLotProduct("arroz")
	f.seedCatalog()
	f.seedLot("q1", "arroz", "10", 8)

	_, err := f.consume.Consume(context.Background(), appinv.ConsumeInput{
		ProductID: "arroz", Weight: dec("10"), SaleRef: "venta-020", UserID: "cajero-1",
	})
	require.NoError(t, err)

	lot, err := f.receive.ReceiveLot(context.Background(), appinv.ReceiveLotInput{
		ProductID: "arroz", SupplierID: "prov-1", Weight: dec("100"),
		UnitID: "kg", UnitCost: dec("2.10"), UserID: "bodeguero-1",
	})
	require.NoError(t, err)
	require.NotNil(t, lot)

	status, err := f.store.Repos().Statuses.Get(context.Background(), "arroz")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusNormal, status.State)
	assert.True(t, status.TotalWeight.Equal(dec("100")))
}
