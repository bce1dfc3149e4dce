package students

import (
	"github.com/gofiber/fiber/v2"

	"github.com/BRian-210/Karumande/app/routes/auth"
)

func SetupStudentsRoutes(app *fiber.App) {
	// API routes
	api := app.Group("/api/students")
	api.Use(auth.AuthMiddleware)
	api.Get("/", GetStudentsAPI)    // Get/search students
	api.Get("/:id", GetStudentByIDAPI) // Get single student by ID
	api.Post("/", auth.RoleMiddleware(auth.RoleAdmin), CreateStudentAPI)
	api.Post("/:id/parents", auth.RoleMiddleware(auth.RoleAdmin), LinkParentAPI)

	// Parent management API
	app.Post("/api/parents", auth.AuthMiddleware, auth.RoleMiddleware(auth.RoleAdmin), CreateParentAPI)
}
