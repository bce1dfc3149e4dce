package bills

import (
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/BRian-210/Karumande/app/database"
	"github.com/BRian-210/Karumande/app/models"
)

var validate = validator.New()

// GetBillsAPI returns all bills for a student. Parents only see bills for
// students they are linked to.
func GetBillsAPI(c *fiber.Ctx, db *sql.DB) error {
	studentID := c.Query("student_id")
	if studentID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "student_id is required"})
	}

	user := c.Locals("user").(*models.User)
	if !user.HasRole("admin") && !user.HasRole("teacher") {
		guardians, err := database.GetStudentGuardianUserIDs(db, studentID)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "Database error"})
		}
		allowed := false
		for _, id := range guardians {
			if id == user.ID {
				allowed = true
				break
			}
		}
		if !allowed {
			return c.Status(403).JSON(fiber.Map{"error": "Forbidden"})
		}
	}

	bills, err := database.GetBillsByStudent(db, studentID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch bills"})
	}

	return c.JSON(fiber.Map{
		"bills": bills,
		"count": len(bills),
	})
}

func GetBillByIDAPI(c *fiber.Ctx, db *sql.DB) error {
	bill, err := database.GetBillByID(db, c.Params("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.Status(404).JSON(fiber.Map{"error": "Bill not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Database error"})
	}

	user := c.Locals("user").(*models.User)
	if !user.HasRole("admin") && !user.HasRole("teacher") {
		guardians, err := database.GetStudentGuardianUserIDs(db, bill.StudentID)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "Database error"})
		}
		allowed := false
		for _, id := range guardians {
			if id == user.ID {
				allowed = true
				break
			}
		}
		if !allowed {
			return c.Status(403).JSON(fiber.Map{"error": "Forbidden"})
		}
	}

	return c.JSON(bill)
}

// CreateBillAPI records a new bill for a student (admin only; bill
// generation from fee structures happens upstream of this endpoint).
func CreateBillAPI(c *fiber.Ctx, db *sql.DB) error {
	type CreateBillRequest struct {
		StudentID   string  `json:"student_id" validate:"required,uuid"`
		Term        string  `json:"term"`
		Description string  `json:"description"`
		Amount      float64 `json:"amount" validate:"required,gte=0"`
	}

	var req CreateBillRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	if _, err := database.GetStudentByID(db, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.Status(404).JSON(fiber.Map{"error": "Student not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Database error"})
	}

	bill := &models.Bill{
		StudentID:   req.StudentID,
		Term:        req.Term,
		Description: req.Description,
		Amount:      req.Amount,
	}
	if err := database.CreateBill(db, bill); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to create bill"})
	}

	return c.Status(201).JSON(fiber.Map{
		"message": "Bill created successfully",
		"bill":    bill,
	})
}

// AdjustBillAPI is the staff correction path: it sets the numeric fields
// directly (write-offs, data fixes), clamped and with status re-derived. It
// is not funded by a payment; the payment-driven path is the callback
// reconciler.
func AdjustBillAPI(c *fiber.Ctx, db *sql.DB) error {
	type AdjustBillRequest struct {
		Amount     *float64 `json:"amount,omitempty" validate:"omitempty,gte=0"`
		AmountPaid *float64 `json:"amount_paid,omitempty" validate:"omitempty,gte=0"`
		Balance    *float64 `json:"balance,omitempty" validate:"omitempty,gte=0"`
	}

	var req AdjustBillRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	if req.Amount == nil && req.AmountPaid == nil && req.Balance == nil {
		return c.Status(400).JSON(fiber.Map{"error": "Nothing to adjust"})
	}

	bill, err := database.AdjustBillDirect(db, c.Params("id"), database.BillAdjustment{
		Amount:     req.Amount,
		AmountPaid: req.AmountPaid,
		Balance:    req.Balance,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.Status(404).JSON(fiber.Map{"error": "Bill not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Failed to adjust bill"})
	}

	return c.JSON(fiber.Map{
		"message": "Bill adjusted successfully",
		"bill":    bill,
	})
}
