package students

import (
	"database/sql"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/BRian-210/Karumande/app/config"
	"github.com/BRian-210/Karumande/app/database"
	"github.com/BRian-210/Karumande/app/models"
)

func GetStudentsAPI(c *fiber.Ctx) error {
	search := c.Query("search")
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	students, err := database.SearchStudents(config.GetDB(), search, limit, offset)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch students"})
	}

	return c.JSON(fiber.Map{
		"students": students,
		"count":    len(students),
	})
}

func GetStudentByIDAPI(c *fiber.Ctx) error {
	student, err := database.GetStudentByID(config.GetDB(), c.Params("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.Status(404).JSON(fiber.Map{"error": "Student not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "Database error"})
	}

	return c.JSON(student)
}

func CreateStudentAPI(c *fiber.Ctx) error {
	type CreateStudentRequest struct {
		StudentID string `json:"student_id"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Gender    string `json:"gender"`
	}

	var req CreateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request"})
	}

	if req.StudentID == "" || req.FirstName == "" || req.LastName == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Student ID, first name and last name are required"})
	}

	student := &models.Student{
		StudentID: req.StudentID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Gender:    models.Gender(req.Gender),
	}

	if err := database.CreateStudent(config.GetDB(), student); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to create student"})
	}

	return c.Status(201).JSON(fiber.Map{
		"message": "Student created successfully",
		"student": student,
	})
}

// LinkParentAPI links an existing parent to a student. The link is what
// authorizes the parent's user account to pay the student's fees.
func LinkParentAPI(c *fiber.Ctx) error {
	type LinkParentRequest struct {
		ParentID string `json:"parent_id"`
	}

	var req LinkParentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request"})
	}
	if req.ParentID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "parent_id is required"})
	}

	if err := database.LinkStudentToParent(config.GetDB(), c.Params("id"), req.ParentID); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to link parent"})
	}

	return c.JSON(fiber.Map{"message": "Parent linked successfully"})
}

func CreateParentAPI(c *fiber.Ctx) error {
	type CreateParentRequest struct {
		UserID       string `json:"user_id"`
		FirstName    string `json:"first_name"`
		LastName     string `json:"last_name"`
		Phone        string `json:"phone"`
		Email        string `json:"email"`
		Address      string `json:"address"`
		Relationship string `json:"relationship"`
	}

	var req CreateParentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request"})
	}

	if req.FirstName == "" || req.LastName == "" {
		return c.Status(400).JSON(fiber.Map{"error": "First name and last name are required"})
	}

	parent := &models.Parent{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Relationship: models.RelationshipType(req.Relationship),
	}

	if req.UserID != "" {
		parent.UserID = &req.UserID
	}
	if req.Phone != "" {
		parent.Phone = &req.Phone
	}
	if req.Email != "" {
		parent.Email = &req.Email
	}
	if req.Address != "" {
		parent.Address = &req.Address
	}

	if err := database.CreateParent(config.GetDB(), parent); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to create parent"})
	}

	return c.Status(201).JSON(fiber.Map{
		"message": "Parent created successfully",
		"parent":  parent,
	})
}
