package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/OKB20/spos-api/controllers"
	"github.com/OKB20/spos-api/idempotency"
	"github.com/OKB20/spos-api/middlewares"
	"github.com/OKB20/spos-api/tokens"
)

// Register wires all HTTP routes.
func Register(app *fiber.App, authority *tokens.Authority, guard *idempotency.Guard) {
	controllers.Setup(authority, guard)

	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Public auth endpoints
	auth := api.Group("/auth")
	auth.Post("/register", controllers.RegisterUser)
	auth.Post("/login", controllers.Login)
	auth.Post("/refresh", controllers.Refresh)
	auth.Post("/logout", controllers.Logout)

	// Authenticated self-service
	auth.Get("/me", middlewares.RequireAuth(authority), controllers.Me)
	auth.Patch("/me", middlewares.RequireAuth(authority), controllers.UpdateMe)

	// User administration (admin only via permission table: no role grants users.*)
	users := api.Group("/users", middlewares.RequireAuth(authority))
	users.Get("/", middlewares.RequirePermission("users.read"), controllers.GetUsers)
	users.Patch("/:id", middlewares.RequirePermission("users.write"), controllers.UpdateUser)
	users.Post("/:id/reset-password", middlewares.RequirePermission("users.write"), controllers.ResetPassword)

	// Protected POS endpoints (JWT auth + per-route permission)
	pos := api.Group("/pos")
	pos.Use(middlewares.RequireAuth(authority))

	// Products
	pos.Post("/products", middlewares.RequirePermission("products.write"), controllers.CreateProduct)
	pos.Get("/products", middlewares.RequirePermission("products.read"), controllers.GetProducts)
	pos.Get("/products/low-stock", middlewares.RequirePermission("products.read"), controllers.GetLowStockProducts)
	pos.Get("/products/:id", middlewares.RequirePermission("products.read"), controllers.GetProduct)
	pos.Patch("/products/:id", middlewares.RequirePermission("products.write"), controllers.UpdateProduct)
	pos.Delete("/products/:id", middlewares.RequirePermission("products.delete"), controllers.DeleteProduct)

	// Customers
	pos.Post("/customers", middlewares.RequirePermission("customers.write"), controllers.CreateCustomer)
	pos.Get("/customers", middlewares.RequirePermission("customers.read"), controllers.GetCustomers)
	pos.Get("/customers/:id", middlewares.RequirePermission("customers.read"), controllers.GetCustomer)
	pos.Patch("/customers/:id", middlewares.RequirePermission("customers.write"), controllers.UpdateCustomer)

	// Sales (idempotent creation; guard runs inside the handler)
	pos.Post("/sales", middlewares.RequirePermission("sales.create"), controllers.CreateSale)
	pos.Get("/sales", middlewares.RequirePermission("sales.read"), controllers.GetSales)
	pos.Get("/sales/:id", middlewares.RequirePermission("sales.read"), controllers.GetSale)
	pos.Patch("/sales/:id/void", middlewares.RequirePermission("sales.void"), controllers.VoidSale)

	// Returns
	pos.Post("/returns", middlewares.RequirePermission("returns.create"), controllers.CreateReturn)
	pos.Get("/returns", middlewares.RequirePermission("returns.read"), controllers.GetReturns)

	// Purchases
	pos.Post("/purchases", middlewares.RequirePermission("purchases.write"), controllers.CreatePurchase)
	pos.Get("/purchases", middlewares.RequirePermission("purchases.read"), controllers.GetPurchases)
	pos.Get("/purchases/:id", middlewares.RequirePermission("purchases.read"), controllers.GetPurchase)
	pos.Patch("/purchases/:id/receive", middlewares.RequirePermission("purchases.write"), controllers.ReceivePurchase)

	// Inventory
	pos.Get("/inventory/transactions", middlewares.RequirePermission("inventory.read"), controllers.GetInventoryTransactions)
	pos.Post("/inventory/transactions", middlewares.RequirePermission("inventory.adjust"), controllers.CreateInventoryTransaction)
	pos.Get("/inventory/counts", middlewares.RequirePermission("inventory.count"), controllers.GetInventoryCounts)
	pos.Post("/inventory/counts", middlewares.RequirePermission("inventory.count"), controllers.CreateInventoryCount)
	pos.Patch("/inventory/counts/:id/resolve", middlewares.RequirePermission("inventory.adjust"), controllers.ResolveInventoryCount)

	// Promotions
	pos.Post("/promotions", middlewares.RequirePermission("promotions.write"), controllers.CreatePromotion)
	pos.Get("/promotions", middlewares.RequirePermission("promotions.read"), controllers.GetPromotions)
	pos.Patch("/promotions/:id", middlewares.RequirePermission("promotions.write"), controllers.UpdatePromotion)

	// Settings
	pos.Get("/settings", middlewares.RequirePermission("settings.read"), controllers.GetSettings)
	pos.Get("/settings/:key", middlewares.RequirePermission("settings.read"), controllers.GetSetting)
	pos.Put("/settings/:key", middlewares.RequirePermission("settings.write"), controllers.UpsertSetting)

	// Audit logs (admin only via permission table: no role grants audit.read)
	pos.Get("/audit-logs", middlewares.RequirePermission("audit.read"), controllers.GetAuditLogs)

	// Reports
	pos.Get("/reports/summary", middlewares.RequirePermission("reports.read"), controllers.GetReportSummary)
	pos.Get("/reports/top-products", middlewares.RequirePermission("reports.read"), controllers.GetTopProducts)
}
