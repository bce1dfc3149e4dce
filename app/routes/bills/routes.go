package bills

import (
	"github.com/gofiber/fiber/v2"

	"github.com/BRian-210/Karumande/app/config"
	"github.com/BRian-210/Karumande/app/routes/auth"
)

// SetupBillsRoutes sets up the bills routes
func SetupBillsRoutes(app *fiber.App) {
	// API routes for bills
	billsAPI := app.Group("/api/bills")
	billsAPI.Use(auth.AuthMiddleware)

	billsAPI.Get("/", func(c *fiber.Ctx) error {
		return GetBillsAPI(c, config.GetDB())
	})

	billsAPI.Get("/:id", func(c *fiber.Ctx) error {
		return GetBillByIDAPI(c, config.GetDB())
	})

	billsAPI.Post("/", auth.RoleMiddleware(auth.RoleAdmin), func(c *fiber.Ctx) error {
		return CreateBillAPI(c, config.GetDB())
	})

	billsAPI.Put("/:id/adjust", auth.RoleMiddleware(auth.RoleAdmin), func(c *fiber.Ctx) error {
		return AdjustBillAPI(c, config.GetDB())
	})
}
