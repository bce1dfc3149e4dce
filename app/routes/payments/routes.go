package payments

import (
	"github.com/gofiber/fiber/v2"

	"github.com/BRian-210/Karumande/app/config"
	"github.com/BRian-210/Karumande/app/routes/auth"
	"github.com/BRian-210/Karumande/app/services"
)

// SetupPaymentsRoutes sets up the payments routes
func SetupPaymentsRoutes(app *fiber.App) {
	cfg := config.AppConfig.Daraja
	handler := NewHandler(NewStore(config.GetDB()), services.NewDarajaClient(cfg), cfg)

	// Provider callback: authenticated by signature and origin, not by
	// token. Registered before the authenticated groups below so their
	// middleware never runs for it.
	app.Post("/payments/callback", handler.DarajaCallbackAPI)

	// Group for payments routes with authentication middleware
	payments := app.Group("/payments")
	payments.Use(auth.AuthMiddleware)

	// API routes for payments
	paymentsAPI := app.Group("/api/payments")
	paymentsAPI.Use(auth.AuthMiddleware)

	// Web routes
	payments.Get("/", func(c *fiber.Ctx) error {
		return c.Render("payments/index", fiber.Map{
			"Title":       "Fee Payments - Karumande Schools",
			"CurrentPage": "payments",
		})
	})

	// API routes
	paymentsAPI.Post("/initiate", handler.InitiatePaymentAPI)

	paymentsAPI.Post("/:id/confirm", auth.RoleMiddleware(auth.RoleAdmin, auth.RoleTeacher), handler.ConfirmPaymentAPI)

	paymentsAPI.Get("/:id", handler.GetPaymentAPI)

	paymentsAPI.Get("/", handler.GetPaymentsAPI)
}
