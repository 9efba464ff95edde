package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/commercebox/quintal-core/internal/application/alerts"
	"github.com/commercebox/quintal-core/internal/application/inventory"
	"github.com/commercebox/quintal-core/internal/application/reports"
)

// Roles de la aplicación.
const (
	RoleAdmin     = "admin"
	RoleBodeguero = "bodeguero"
	RoleVendedor  = "vendedor"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ReceiveLot *inventory.ReceiveLotUseCase
	Consume    *inventory.ConsumeForSaleUseCase
	Reverse    *inventory.ReverseConsumptionUseCase
	Adjust     *inventory.AdjustStockUseCase
	Status     *alerts.StatusUseCase
	Reports    *reports.ReportUseCase
	JWTSecret  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Quintales
	lots := api.Group("/lots")
	lotHandler := NewLotHandler(deps.ReceiveLot, deps.Reports)
	lots.Post("/", RequireRole(RoleAdmin, RoleBodeguero), lotHandler.Receive)
	lots.Get("/expiring", lotHandler.Expiring)
	lots.Get("/:id/history", lotHandler.History)
	api.Get("/products/:id/lots", lotHandler.ListByProduct)

	// Ventas (consumo y trazabilidad)
	sales := api.Group("/sales")
	salesHandler := NewSalesHandler(deps.Consume, deps.Reverse, deps.Reports)
	sales.Post("/consume", salesHandler.Consume)
	sales.Get("/preview", salesHandler.Preview)
	sales.Post("/:ref/reverse", RequireRole(RoleAdmin, RoleBodeguero), salesHandler.Reverse)
	sales.Get("/:ref/trace", salesHandler.Trace)

	// Ajustes y reportes de inventario
	inv := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Adjust, deps.Reports)
	inv.Post("/adjustments/lot", RequireRole(RoleAdmin, RoleBodeguero), inventoryHandler.AdjustLot)
	inv.Post("/adjustments/unit", RequireRole(RoleAdmin, RoleBodeguero), inventoryHandler.AdjustUnit)
	inv.Get("/valuation", inventoryHandler.Valuation)

	// Semáforo de stock
	status := api.Group("/stock-status")
	statusHandler := NewStatusHandler(deps.Status, deps.Reports)
	status.Get("/attention", statusHandler.Attention)
	status.Post("/recompute-all", RequireRole(RoleAdmin), statusHandler.RecomputeAll)
	status.Post("/:product_id/recompute", statusHandler.Recompute)
}
