package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/commercebox/quintal-core/internal/domain/inventory"
)

func TestWeightedAverageCost_PromedioPonderado(t *testing.T) {
	// 10 unidades a 2.00 + 10 unidades a 4.00 = promedio 3.00
	got := inventory.WeightedAverageCost(dec("10"), dec("2.00"), dec("10"), dec("4.00"))
	assert.True(t, got.Equal(dec("3")), "fue %s", got)
}

func TestWeightedAverageCost_StockEnCeroTomaCostoDeEntrada(t *testing.T) {
	got := inventory.WeightedAverageCost(decimal.Zero, decimal.Zero, dec("5"), dec("7.50"))
	assert.True(t, got.Equal(dec("7.50")))
}

func TestWeightedAverageCost_SumaNoPositiva(t *testing.T) {
	got := inventory.WeightedAverageCost(decimal.Zero, dec("3"), decimal.Zero, dec("9"))
	assert.True(t, got.IsZero())
}

func TestWeightedAverageCost_EntradaDesbalanceada(t *testing.T) {
	// 30 unidades a 1.00 + 10 a 5.00 = (30 + 50) / 40 = 2.00
	got := inventory.WeightedAverageCost(dec("30"), dec("1.00"), dec("10"), dec("5.00"))
	assert.True(t, got.Equal(dec("2")), "fue %s", got)
}
