package branch

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/campusmind/console-api/services"
	"github.com/campusmind/console-api/utils/middleware"
	"github.com/campusmind/console-api/utils/response"
	"github.com/campusmind/console-api/utils/validation"
)

// BranchHandler handles branch management for university admins
type BranchHandler struct {
	db        *gorm.DB
	validator *validation.Validator
	catalog   *services.CatalogService
}

// NewBranchHandler creates a new branch handler
func NewBranchHandler(db *gorm.DB, catalog *services.CatalogService) *BranchHandler {
	return &BranchHandler{
		db:        db,
		validator: validation.NewValidator(),
		catalog:   catalog,
	}
}

// CreateBranchRequest represents the request body for creating a branch
type CreateBranchRequest struct {
	Name string `json:"name" validate:"required,min=2,max=255"`
}

// ListBranches handles GET /api/v1/branches
func (h *BranchHandler) ListBranches(c *fiber.Ctx) error {
	universityID, _ := middleware.GetUniversityID(c)

	branches, err := h.catalog.ListBranches(c.Context(), universityID)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, branches)
}

// CreateBranch handles POST /api/v1/branches
func (h *BranchHandler) CreateBranch(c *fiber.Ctx) error {
	universityID, _ := middleware.GetUniversityID(c)

	var req CreateBranchRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	branch, err := h.catalog.CreateBranch(c.Context(), universityID, req.Name)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, branch)
}

// DeleteBranch handles DELETE /api/v1/branches/:id. The branch and everything
// below it goes; the branch's students survive without a branch assignment.
func (h *BranchHandler) DeleteBranch(c *fiber.Ctx) error {
	universityID, _ := middleware.GetUniversityID(c)

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid branch ID")
	}

	if err := h.catalog.DeleteBranch(c.Context(), universityID, uint(id)); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Branch deleted successfully", nil)
}
