package university

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/campusmind/console-api/model"
	"github.com/campusmind/console-api/utils/auth"
	"github.com/campusmind/console-api/utils/response"
	"github.com/campusmind/console-api/utils/validation"
)

// UniversityHandler handles master-admin management of universities and
// their admins
type UniversityHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewUniversityHandler creates a new university handler
func NewUniversityHandler(db *gorm.DB) *UniversityHandler {
	return &UniversityHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// CreateUniversityRequest represents the request body for creating a university
type CreateUniversityRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=255"`
	Code    string `json:"code" validate:"omitempty,min=2,max=50"`
	City    string `json:"city" validate:"omitempty,max=100"`
	State   string `json:"state" validate:"omitempty,max=100"`
	Country string `json:"country" validate:"omitempty,max=100"`
}

// UpdateUniversityRequest represents the request body for updating a university
type UpdateUniversityRequest struct {
	Name     string `json:"name" validate:"omitempty,min=2,max=255"`
	City     string `json:"city" validate:"omitempty,max=100"`
	State    string `json:"state" validate:"omitempty,max=100"`
	Country  string `json:"country" validate:"omitempty,max=100"`
	IsActive *bool  `json:"is_active"`
}

// CreateAdminRequest represents the request body for creating a university admin
type CreateAdminRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// ListUniversities handles GET /api/v1/universities
func (h *UniversityHandler) ListUniversities(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	search := c.Query("search", "")

	query := h.db.Model(&model.University{})
	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count universities")
	}

	pagination := response.CalculatePagination(page, limit, total)

	var universities []model.University
	if err := query.Order("name ASC").
		Limit(pagination.PerPage).
		Offset((pagination.CurrentPage - 1) * pagination.PerPage).
		Find(&universities).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch universities")
	}

	return response.Paginated(c, universities, pagination)
}

// GetUniversity handles GET /api/v1/universities/:id
func (h *UniversityHandler) GetUniversity(c *fiber.Ctx) error {
	id := c.Params("id")

	var university model.University
	if err := h.db.Preload("Branches").First(&university, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "University not found")
		}
		return response.InternalServerError(c, "Failed to fetch university")
	}

	return response.Success(c, university)
}

// CreateUniversity handles POST /api/v1/universities
func (h *UniversityHandler) CreateUniversity(c *fiber.Ctx) error {
	var req CreateUniversityRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var existing model.University
	if err := h.db.Where("LOWER(name) = LOWER(?)", req.Name).
		First(&existing).Error; err == nil {
		return response.Conflict(c, "University with this name already exists")
	}
	if code := strings.TrimSpace(req.Code); code != "" {
		if err := h.db.Where("LOWER(code) = LOWER(?)", code).
			First(&existing).Error; err == nil {
			return response.Conflict(c, "University with this code already exists")
		}
	}

	university := model.University{
		Name:     strings.TrimSpace(req.Name),
		City:     req.City,
		State:    req.State,
		Country:  req.Country,
		IsActive: true,
	}
	if code := strings.TrimSpace(req.Code); code != "" {
		university.Code = &code
	}
	if err := h.db.Create(&university).Error; err != nil {
		return response.InternalServerError(c, "Failed to create university")
	}

	return response.Created(c, university)
}

// UpdateUniversity handles PUT /api/v1/universities/:id
func (h *UniversityHandler) UpdateUniversity(c *fiber.Ctx) error {
	id := c.Params("id")

	var university model.University
	if err := h.db.First(&university, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "University not found")
		}
		return response.InternalServerError(c, "Failed to fetch university")
	}

	var req UpdateUniversityRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = strings.TrimSpace(req.Name)
	}
	if req.City != "" {
		updates["city"] = req.City
	}
	if req.State != "" {
		updates["state"] = req.State
	}
	if req.Country != "" {
		updates["country"] = req.Country
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := h.db.Model(&university).Updates(updates).Error; err != nil {
			return response.InternalServerError(c, "Failed to update university")
		}
	}

	return response.Success(c, university)
}

// DeleteUniversity handles DELETE /api/v1/universities/:id. The whole tree
// goes in one transaction: admins, students, chats, catalog, materials.
func (h *UniversityHandler) DeleteUniversity(c *fiber.Ctx) error {
	id := c.Params("id")

	var university model.University
	if err := h.db.First(&university, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "University not found")
		}
		return response.InternalServerError(c, "Failed to fetch university")
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		branchQ := tx.Model(&model.Branch{}).Select("id").Where("university_id = ?", university.ID)
		semesterQ := tx.Model(&model.Semester{}).Select("id").Where("branch_id IN (?)", branchQ)
		subjectQ := tx.Model(&model.Subject{}).Select("id").Where("semester_id IN (?)", semesterQ)
		studentQ := tx.Model(&model.Student{}).Select("id").Where("university_id = ?", university.ID)
		chatQ := tx.Model(&model.Chat{}).Select("id").Where("student_id IN (?)", studentQ)

		if err := tx.Where("chat_id IN (?)", chatQ).Delete(&model.ChatMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("student_id IN (?)", studentQ).Delete(&model.Chat{}).Error; err != nil {
			return err
		}
		if err := tx.Where("subject_id IN (?)", subjectQ).Delete(&model.Document{}).Error; err != nil {
			return err
		}
		if err := tx.Where("semester_id IN (?)", semesterQ).Delete(&model.Subject{}).Error; err != nil {
			return err
		}
		if err := tx.Where("branch_id IN (?)", branchQ).Delete(&model.Semester{}).Error; err != nil {
			return err
		}
		if err := tx.Where("university_id = ?", university.ID).Delete(&model.Student{}).Error; err != nil {
			return err
		}
		if err := tx.Where("university_id = ?", university.ID).Delete(&model.Branch{}).Error; err != nil {
			return err
		}
		if err := tx.Where("university_id = ?", university.ID).Delete(&model.UniversityAdmin{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.University{}, university.ID).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to delete university")
	}

	return response.SuccessWithMessage(c, "University deleted successfully", nil)
}

// CreateAdmin handles POST /api/v1/universities/:id/admins
func (h *UniversityHandler) CreateAdmin(c *fiber.Ctx) error {
	id := c.Params("id")

	var university model.University
	if err := h.db.First(&university, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "University not found")
		}
		return response.InternalServerError(c, "Failed to fetch university")
	}

	var req CreateAdminRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if h.emailTaken(email) {
		return response.Conflict(c, "Email is already registered")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return response.InternalServerError(c, "Failed to hash password")
	}

	admin := model.UniversityAdmin{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		UniversityID: university.ID,
		IsActive:     true,
	}
	if err := h.db.Create(&admin).Error; err != nil {
		return response.InternalServerError(c, "Failed to create admin")
	}

	return response.Created(c, admin)
}

// ListAdmins handles GET /api/v1/universities/:id/admins
func (h *UniversityHandler) ListAdmins(c *fiber.Ctx) error {
	id := c.Params("id")

	var admins []model.UniversityAdmin
	if err := h.db.Where("university_id = ?", id).
		Order("name ASC").Find(&admins).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch admins")
	}

	return response.Success(c, admins)
}

// emailTaken checks all three principal tables for an existing email
func (h *UniversityHandler) emailTaken(email string) bool {
	var count int64
	h.db.Model(&model.MasterAdmin{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return true
	}
	h.db.Model(&model.UniversityAdmin{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return true
	}
	h.db.Model(&model.Student{}).Where("email = ?", email).Count(&count)
	return count > 0
}
