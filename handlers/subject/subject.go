package subject

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/campusmind/console-api/services"
	"github.com/campusmind/console-api/utils/middleware"
	"github.com/campusmind/console-api/utils/response"
	"github.com/campusmind/console-api/utils/validation"
)

// SubjectHandler handles subject management for university admins
type SubjectHandler struct {
	db        *gorm.DB
	validator *validation.Validator
	catalog   *services.CatalogService
}

// NewSubjectHandler creates a new subject handler
func NewSubjectHandler(db *gorm.DB, catalog *services.CatalogService) *SubjectHandler {
	return &SubjectHandler{
		db:        db,
		validator: validation.NewValidator(),
		catalog:   catalog,
	}
}

// CreateSubjectRequest represents the request body for creating a subject
type CreateSubjectRequest struct {
	Name string `json:"name" validate:"required,min=2,max=255"`
}

// ListSubjects handles GET /api/v1/semesters/:semester_id/subjects
func (h *SubjectHandler) ListSubjects(c *fiber.Ctx) error {
	universityID, _ := middleware.GetUniversityID(c)

	semesterID, err := strconv.ParseUint(c.Params("semester_id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid semester ID")
	}

	subjects, err := h.catalog.ListSubjects(c.Context(), universityID, uint(semesterID))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, subjects)
}

// CreateSubject handles POST /api/v1/semesters/:semester_id/subjects
func (h *SubjectHandler) CreateSubject(c *fiber.Ctx) error {
	universityID, _ := middleware.GetUniversityID(c)

	semesterID, err := strconv.ParseUint(c.Params("semester_id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid semester ID")
	}

	var req CreateSubjectRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	subject, err := h.catalog.CreateSubject(c.Context(), universityID, uint(semesterID), req.Name)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, subject)
}

// DeleteSubject handles DELETE /api/v1/subjects/:id
func (h *SubjectHandler) DeleteSubject(c *fiber.Ctx) error {
	universityID, _ := middleware.GetUniversityID(c)

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid subject ID")
	}

	if err := h.catalog.DeleteSubject(c.Context(), universityID, uint(id)); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Subject deleted successfully", nil)
}
