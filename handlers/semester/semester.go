package semester

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/campusmind/console-api/services"
	"github.com/campusmind/console-api/utils/middleware"
	"github.com/campusmind/console-api/utils/response"
	"github.com/campusmind/console-api/utils/validation"
)

// SemesterHandler handles semester management for university admins
type SemesterHandler struct {
	db        *gorm.DB
	validator *validation.Validator
	catalog   *services.CatalogService
}

// NewSemesterHandler creates a new semester handler
func NewSemesterHandler(db *gorm.DB, catalog *services.CatalogService) *SemesterHandler {
	return &SemesterHandler{
		db:        db,
		validator: validation.NewValidator(),
		catalog:   catalog,
	}
}

// CreateSemesterRequest represents the request body for creating a semester
type CreateSemesterRequest struct {
	SemesterNumber int    `json:"semester_number" validate:"required,min=1,max=20"`
	Name           string `json:"name" validate:"omitempty,max=150"`
}

// ListSemesters handles GET /api/v1/branches/:branch_id/semesters
func (h *SemesterHandler) ListSemesters(c *fiber.Ctx) error {
	universityID, _ := middleware.GetUniversityID(c)

	branchID, err := strconv.ParseUint(c.Params("branch_id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid branch ID")
	}

	semesters, err := h.catalog.ListSemesters(c.Context(), universityID, uint(branchID))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, semesters)
}

// CreateSemester handles POST /api/v1/branches/:branch_id/semesters
func (h *SemesterHandler) CreateSemester(c *fiber.Ctx) error {
	universityID, _ := middleware.GetUniversityID(c)

	branchID, err := strconv.ParseUint(c.Params("branch_id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid branch ID")
	}

	var req CreateSemesterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	semester, err := h.catalog.CreateSemester(c.Context(), universityID, uint(branchID),
		req.SemesterNumber, req.Name)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, semester)
}

// DeleteSemester handles DELETE /api/v1/semesters/:id
func (h *SemesterHandler) DeleteSemester(c *fiber.Ctx) error {
	universityID, _ := middleware.GetUniversityID(c)

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid semester ID")
	}

	if err := h.catalog.DeleteSemester(c.Context(), universityID, uint(id)); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Semester deleted successfully", nil)
}
