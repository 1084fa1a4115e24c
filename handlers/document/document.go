package document

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/campusmind/console-api/services"
	"github.com/campusmind/console-api/services/storage"
	"github.com/campusmind/console-api/utils/middleware"
	"github.com/campusmind/console-api/utils/response"
	"github.com/campusmind/console-api/utils/validation"
)

// DocumentHandler handles course material management for university admins
type DocumentHandler struct {
	db        *gorm.DB
	validator *validation.Validator
	documents *services.DocumentService
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(db *gorm.DB, documents *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		db:        db,
		validator: validation.NewValidator(),
		documents: documents,
	}
}

// CreateManualRequest represents the request body for a manual material
type CreateManualRequest struct {
	Title string `json:"title" validate:"required,min=1,max=255"`
}

// ListDocuments handles GET /api/v1/subjects/:subject_id/documents
func (h *DocumentHandler) ListDocuments(c *fiber.Ctx) error {
	universityID, _ := middleware.GetUniversityID(c)

	subjectID, err := strconv.ParseUint(c.Params("subject_id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid subject ID")
	}

	documents, err := h.documents.ListDocuments(c.Context(), universityID, uint(subjectID))
	if err != nil {
		return response.FromError(c, err)
	}

	// Status is derived, so surface it alongside each record
	out := make([]fiber.Map, 0, len(documents))
	for _, d := range documents {
		out = append(out, fiber.Map{
			"id":          d.ID,
			"subject_id":  d.SubjectID,
			"title":       d.Title,
			"source_type": d.SourceType,
			"status":      d.Status(),
			"file_size":   d.FileSize,
			"page_count":  d.PageCount,
			"created_at":  d.CreatedAt,
		})
	}
	return response.Success(c, out)
}

// CreateManual handles POST /api/v1/subjects/:subject_id/documents
func (h *DocumentHandler) CreateManual(c *fiber.Ctx) error {
	universityID, _ := middleware.GetUniversityID(c)

	subjectID, err := strconv.ParseUint(c.Params("subject_id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid subject ID")
	}

	var req CreateManualRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	document, err := h.documents.CreateManual(c.Context(), universityID, uint(subjectID), req.Title)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, document)
}

// UploadPDF handles POST /api/v1/subjects/:subject_id/documents/upload
func (h *DocumentHandler) UploadPDF(c *fiber.Ctx) error {
	universityID, _ := middleware.GetUniversityID(c)

	subjectID, err := strconv.ParseUint(c.Params("subject_id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid subject ID")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "Missing file upload")
	}
	title := c.FormValue("title", "")

	blobKey := storage.GenerateKey(uint(subjectID), file.Filename)
	document, err := h.documents.UploadPDF(c.Context(), universityID, uint(subjectID), title, file, blobKey)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, document)
}

// DownloadURL handles GET /api/v1/documents/:id/download
func (h *DocumentHandler) DownloadURL(c *fiber.Ctx) error {
	universityID, _ := middleware.GetUniversityID(c)

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid document ID")
	}

	url, err := h.documents.DownloadURL(c.Context(), universityID, uint(id))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, fiber.Map{"url": url})
}

// DeleteDocument handles DELETE /api/v1/documents/:id
func (h *DocumentHandler) DeleteDocument(c *fiber.Ctx) error {
	universityID, _ := middleware.GetUniversityID(c)

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid document ID")
	}

	if err := h.documents.DeleteDocument(c.Context(), universityID, uint(id)); err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMessage(c, "Document deleted successfully", nil)
}
