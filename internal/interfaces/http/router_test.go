package http

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercebox/quintal-core/internal/application/alerts"
	"github.com/commercebox/quintal-core/internal/application/dto"
	appinv "github.com/commercebox/quintal-core/internal/application/inventory"
	"github.com/commercebox/quintal-core/internal/application/reports"
	"github.com/commercebox/quintal-core/internal/domain/entity"
	invdomain "github.com/commercebox/quintal-core/internal/domain/inventory"
	"github.com/commercebox/quintal-core/internal/infrastructure/memory"
	"github.com/commercebox/quintal-core/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// App completa sobre el almacén en memoria
// ──────────────────────────────────────────────────────────────────────────────

func buildAPI(t *testing.T) (*fiber.App, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	runner := &memory.TxRunner{Store: store}
	log := logger.Nop()
	repos := store.Repos()

	status := alerts.NewStatusUseCase(runner, store.ProductRepo(), nil, invdomain.DefaultThresholds(), log)
	deps := RouterDeps{
		ReceiveLot: appinv.NewReceiveLotUseCase(runner, store.ProductRepo(), store.SupplierRepo(), store.WeightUnitRepo(), status),
		Consume:    appinv.NewConsumeForSaleUseCase(runner, store.ProductRepo(), repos.Lots, status, log),
		Reverse:    appinv.NewReverseConsumptionUseCase(runner, store.ProductRepo(), status),
		Adjust:     appinv.NewAdjustStockUseCase(runner, store.ProductRepo(), status),
		Status:     status,
		Reports:    reports.NewReportUseCase(repos.Lots, repos.LotMovs, repos.UnitMovs, repos.Statuses),
		JWTSecret:  testSecret,
	}

	app := fiber.New()
	Router(app, deps)
	return app, store
}

func seedAPIStore(store *memory.Store) {
	store.AddProduct(&entity.Product{
		ID: "arroz", SKU: "ARZ-1", Name: "Arroz",
		TrackingMode: entity.TrackingModeLot, BaseUnitID: "kg", Active: true,
	})
	store.AddSupplier(&entity.Supplier{ID: "prov-1", Name: "Agroinsumos del Valle", TaxID: "900123456", Active: true})
	store.AddWeightUnit(entity.WeightUnit{ID: "kg", Name: "Kilogramo", Abbreviation: "kg", FactorToKg: decimal.NewFromInt(1), Active: true})
	w := decimal.NewFromInt(100)
	store.AddLot(&entity.Lot{
		ID: "q1", Code: "QNT-TEST-q1", ProductID: "arroz", SupplierID: "prov-1",
		InitialWeight: w, CurrentWeight: w, UnitID: "kg",
		CostPerUnit: decimal.NewFromFloat(2.5), TotalCost: w.Mul(decimal.NewFromFloat(2.5)),
		ReceivedAt: time.Now().AddDate(0, 0, -3), State: entity.LotStateAvailable,
	})
}

func postJSON(t *testing.T, app *fiber.App, path, role string, payload any) (int, []byte) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tokenForRole(t, role))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, buf.Bytes()
}

func getJSON(t *testing.T, app *fiber.App, path, role string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	req.Header.Set("Authorization", "Bearer "+tokenForRole(t, role))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, buf.Bytes()
}

// ──────────────────────────────────────────────────────────────────────────────
// Consumo por venta
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_ConsumoExitoso(t *testing.T) {
	app, store := buildAPI(t)
	seedAPIStore(store)

	status, body := postJSON(t, app, "/api/sales/consume", RoleVendedor, dto.ConsumeRequest{
		ProductID: "arroz",
		Weight:    decimal.NewFromInt(40),
		SaleRef:   "venta-100",
	})
	require.Equal(t, fiber.StatusCreated, status, "respuesta: %s", body)

	assert.True(t, store.GetLot("q1").CurrentWeight.Equal(decimal.NewFromInt(60)))
}

// El rechazo por stock insuficiente viaja como 409 con el faltante exacto.
func TestAPI_ConsumoInsuficienteDevuelve409ConFaltante(t *testing.T) {
	app, store := buildAPI(t)
	seedAPIStore(store)

	status, body := postJSON(t, app, "/api/sales/consume", RoleVendedor, dto.ConsumeRequest{
		ProductID: "arroz",
		Weight:    decimal.NewFromInt(150),
		SaleRef:   "venta-101",
	})
	require.Equal(t, fiber.StatusConflict, status)

	var errResp struct {
		Code    string                       `json:"code"`
		Details dto.InsufficientStockDetails `json:"details"`
	}
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "INSUFFICIENT_STOCK", errResp.Code)
	assert.True(t, errResp.Details.Available.Equal(decimal.NewFromInt(100)))
	assert.True(t, errResp.Details.Shortfall.Equal(decimal.NewFromInt(50)))

	assert.True(t, store.GetLot("q1").CurrentWeight.Equal(decimal.NewFromInt(100)), "el rechazo no toca el quintal")
}

// ──────────────────────────────────────────────────────────────────────────────
// Recepción y roles
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_RecepcionDeQuintal(t *testing.T) {
	app, store := buildAPI(t)
	seedAPIStore(store)

	status, body := postJSON(t, app, "/api/lots", RoleBodeguero, dto.ReceiveLotRequest{
		ProductID:  "arroz",
		SupplierID: "prov-1",
		Weight:     decimal.NewFromInt(50),
		UnitID:     "kg",
		UnitCost:   decimal.NewFromFloat(2.2),
	})
	require.Equal(t, fiber.StatusCreated, status, "respuesta: %s", body)

	var lot dto.LotResponse
	require.NoError(t, json.Unmarshal(body, &lot))
	assert.NotEmpty(t, lot.Code)
	assert.True(t, lot.CurrentWeight.Equal(decimal.NewFromInt(50)))
}

func TestAPI_VendedorNoPuedeRecibirQuintales(t *testing.T) {
	app, store := buildAPI(t)
	seedAPIStore(store)

	status, body := postJSON(t, app, "/api/lots", RoleVendedor, dto.ReceiveLotRequest{
		ProductID: "arroz", SupplierID: "prov-1",
		Weight: decimal.NewFromInt(50), UnitCost: decimal.NewFromInt(2),
	})
	assert.Equal(t, fiber.StatusForbidden, status)

	var errResp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "FORBIDDEN", errResp.Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Trazabilidad
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_TrazaDeVenta(t *testing.T) {
	app, store := buildAPI(t)
	seedAPIStore(store)

	status, _ := postJSON(t, app, "/api/sales/consume", RoleVendedor, dto.ConsumeRequest{
		ProductID: "arroz", Weight: decimal.NewFromInt(30), SaleRef: "venta-102",
	})
	require.Equal(t, fiber.StatusCreated, status)

	status, body := getJSON(t, app, "/api/sales/venta-102/trace", RoleVendedor)
	require.Equal(t, fiber.StatusOK, status, "respuesta: %s", body)

	var trace reports.SaleTrace
	require.NoError(t, json.Unmarshal(body, &trace))
	require.Len(t, trace.LotItems, 1)
	assert.Equal(t, "QNT-TEST-q1", trace.LotItems[0].LotCode)
	assert.True(t, trace.LotItems[0].Weight.Equal(decimal.NewFromInt(30)))

	status, _ = getJSON(t, app, "/api/sales/venta-nunca-vista/trace", RoleVendedor)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestAPI_HistorialDeQuintal(t *testing.T) {
	app, store := buildAPI(t)
	seedAPIStore(store)

	status, _ := postJSON(t, app, "/api/sales/consume", RoleVendedor, dto.ConsumeRequest{
		ProductID: "arroz", Weight: decimal.NewFromInt(25), SaleRef: "venta-103",
	})
	require.Equal(t, fiber.StatusCreated, status)

	status, body := getJSON(t, app, "/api/lots/q1/history", RoleVendedor)
	require.Equal(t, fiber.StatusOK, status)

	var history reports.LotHistory
	require.NoError(t, json.Unmarshal(body, &history))
	require.Len(t, history.Movements, 1)
	assert.Equal(t, entity.MovementSale, history.Movements[0].Kind)
	assert.True(t, history.WeightSold.Equal(decimal.NewFromInt(25)))
}

func TestAPI_HealthSinAutenticacion(t *testing.T) {
	app, _ := buildAPI(t)

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
