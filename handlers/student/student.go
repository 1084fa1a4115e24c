package student

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/campusmind/console-api/services"
	"github.com/campusmind/console-api/utils/middleware"
	"github.com/campusmind/console-api/utils/response"
	"github.com/campusmind/console-api/utils/validation"
)

// StudentHandler handles roster queries, student lifecycle and bulk imports
// for university admins
type StudentHandler struct {
	db        *gorm.DB
	validator *validation.Validator
	roster    *services.RosterService
	importer  *services.ImportService
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(db *gorm.DB, roster *services.RosterService, importer *services.ImportService) *StudentHandler {
	return &StudentHandler{
		db:        db,
		validator: validation.NewValidator(),
		roster:    roster,
		importer:  importer,
	}
}

// ListStudents handles GET /api/v1/students with roster filters:
// branch_id, batch_year, status, q, page, limit. Filters combine.
func (h *StudentHandler) ListStudents(c *fiber.Ctx) error {
	universityID, _ := middleware.GetUniversityID(c)

	branchID, _ := strconv.Atoi(c.Query("branch_id", "0"))
	batchYear, _ := strconv.Atoi(c.Query("batch_year", "0"))
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	filter := services.RosterFilter{
		BranchID:  uint(branchID),
		BatchYear: batchYear,
		Status:    c.Query("status", ""),
		Query:     c.Query("q", ""),
		Page:      page,
		Limit:     limit,
	}

	students, total, err := h.roster.ListStudents(c.Context(), universityID, filter)
	if err != nil {
		return response.FromError(c, err)
	}

	pagination := response.CalculatePagination(page, limit, total)
	return response.Paginated(c, students, pagination)
}

// GetStudent handles GET /api/v1/students/:id
func (h *StudentHandler) GetStudent(c *fiber.Ctx) error {
	universityID, _ := middleware.GetUniversityID(c)

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}

	student, err := h.roster.GetStudent(c.Context(), universityID, uint(id))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, student)
}

// ActivateStudent handles POST /api/v1/students/:id/activate
func (h *StudentHandler) ActivateStudent(c *fiber.Ctx) error {
	return h.setActive(c, true)
}

// DeactivateStudent handles POST /api/v1/students/:id/deactivate. The
// account and its chat history stay; only sign-in is blocked.
func (h *StudentHandler) DeactivateStudent(c *fiber.Ctx) error {
	return h.setActive(c, false)
}

func (h *StudentHandler) setActive(c *fiber.Ctx, active bool) error {
	universityID, _ := middleware.GetUniversityID(c)

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}

	student, err := h.roster.SetActive(c.Context(), universityID, uint(id), active)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, student)
}

// DeleteStudent handles DELETE /api/v1/students/:id
func (h *StudentHandler) DeleteStudent(c *fiber.Ctx) error {
	universityID, _ := middleware.GetUniversityID(c)

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}

	if err := h.roster.DeleteStudent(c.Context(), universityID, uint(id)); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Student deleted successfully", nil)
}

// ImportStudents handles POST /api/v1/students/import. Multipart form with
// a roster file plus branch_id and batch_year fields. Partial success is
// normal: the report lists provisioned accounts and rejected rows.
func (h *StudentHandler) ImportStudents(c *fiber.Ctx) error {
	universityID, _ := middleware.GetUniversityID(c)

	branchID, err := strconv.ParseUint(c.FormValue("branch_id", "0"), 10, 32)
	if err != nil || branchID == 0 {
		return response.BadRequest(c, "Missing or invalid branch_id")
	}
	batchYear, err := strconv.Atoi(c.FormValue("batch_year", "0"))
	if err != nil || batchYear == 0 {
		return response.BadRequest(c, "Missing or invalid batch_year")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "Missing roster file")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.InternalServerError(c, "Failed to read uploaded file")
	}
	defer file.Close()

	report, err := h.importer.ImportStudents(c.Context(), universityID, uint(branchID),
		batchYear, fileHeader.Filename, file)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, report)
}
