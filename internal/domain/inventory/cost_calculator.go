package inventory

import "github.com/shopspring/decimal"

// WeightedAverageCost implementa el costo promedio ponderado para productos
// por unidades. Solo se aplica en entradas; las ventas salen al promedio vigente.
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
func WeightedAverageCost(currentQty, currentCost, inQty, inCost decimal.Decimal) decimal.Decimal {
	sum := currentQty.Add(inQty)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := currentQty.Mul(currentCost).Add(inQty.Mul(inCost))
	return num.Div(sum)
}
