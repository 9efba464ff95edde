package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiveLotRequest body para POST /api/lots.
type ReceiveLotRequest struct {
	ProductID     string          `json:"product_id"`
	SupplierID    string          `json:"supplier_id"`
	Weight        decimal.Decimal `json:"weight"`
	UnitID        string          `json:"unit_id,omitempty"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
	SupplierLot   string          `json:"supplier_lot,omitempty"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	Origin        string          `json:"origin,omitempty"`
}

// LotResponse representación pública de un quintal.
type LotResponse struct {
	ID            string          `json:"id"`
	Code          string          `json:"code"`
	ProductID     string          `json:"product_id"`
	SupplierID    string          `json:"supplier_id"`
	InitialWeight decimal.Decimal `json:"initial_weight"`
	CurrentWeight decimal.Decimal `json:"current_weight"`
	PercentLeft   decimal.Decimal `json:"percent_left"`
	UnitID        string          `json:"unit_id"`
	CostPerUnit   decimal.Decimal `json:"cost_per_unit"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	State         string          `json:"state"`
	ReceivedAt    time.Time       `json:"received_at"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
	SupplierLot   string          `json:"supplier_lot,omitempty"`
	InvoiceNumber string          `json:"invoice_number,omitempty"`
	Origin        string          `json:"origin,omitempty"`
}

// ConsumeRequest body para POST /api/sales/consume. Weight aplica a productos
// por quintal; Quantity a productos por unidades.
type ConsumeRequest struct {
	ProductID string          `json:"product_id"`
	Weight    decimal.Decimal `json:"weight,omitempty"`
	Quantity  int64           `json:"quantity,omitempty"`
	SaleRef   string          `json:"sale_ref"`
	Note      string          `json:"note,omitempty"`
}

// AdjustLotRequest body para ajustes sobre un quintal.
type AdjustLotRequest struct {
	LotID     string          `json:"lot_id"`
	Delta     decimal.Decimal `json:"delta"`
	Shrinkage bool            `json:"shrinkage,omitempty"`
	Note      string          `json:"note,omitempty"`
}

// AdjustUnitRequest body para ajustes sobre stock por unidades.
type AdjustUnitRequest struct {
	ProductID string           `json:"product_id"`
	Delta     int64            `json:"delta"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
	Note      string           `json:"note,omitempty"`
}

// InsufficientStockDetails detalle del rechazo por stock insuficiente.
type InsufficientStockDetails struct {
	ProductID string          `json:"product_id"`
	Requested decimal.Decimal `json:"requested"`
	Available decimal.Decimal `json:"available"`
	Shortfall decimal.Decimal `json:"shortfall"`
}
