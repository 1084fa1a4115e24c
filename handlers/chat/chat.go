package chat

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/campusmind/console-api/model"
	"github.com/campusmind/console-api/utils/middleware"
	"github.com/campusmind/console-api/utils/response"
	"github.com/campusmind/console-api/utils/validation"
)

// ChatHandler handles student chat sessions over subject materials
type ChatHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewChatHandler creates a new chat handler
func NewChatHandler(db *gorm.DB) *ChatHandler {
	return &ChatHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// CreateChatRequest represents the request body for creating a chat
type CreateChatRequest struct {
	SubjectID *uint  `json:"subject_id"`
	Title     string `json:"title" validate:"omitempty,max=255"`
}

// AddMessageRequest represents the request body for adding a message
type AddMessageRequest struct {
	Message string `json:"message" validate:"required,min=1"`
}

// ListChats handles GET /api/v1/chats
func (h *ChatHandler) ListChats(c *fiber.Ctx) error {
	studentID, _ := middleware.GetPrincipalID(c)

	var chats []model.Chat
	if err := h.db.Where("student_id = ?", studentID).
		Order("updated_at DESC").
		Find(&chats).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch chats")
	}
	return response.Success(c, chats)
}

// CreateChat handles POST /api/v1/chats. A chat may be pinned to a subject
// the student's university offers, or left unscoped.
func (h *ChatHandler) CreateChat(c *fiber.Ctx) error {
	studentID, _ := middleware.GetPrincipalID(c)
	universityID, _ := middleware.GetUniversityID(c)

	var req CreateChatRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if req.SubjectID != nil {
		var count int64
		err := h.db.Model(&model.Subject{}).
			Joins("JOIN semesters ON semesters.id = subjects.semester_id").
			Joins("JOIN branches ON branches.id = semesters.branch_id").
			Where("subjects.id = ? AND branches.university_id = ?", *req.SubjectID, universityID).
			Count(&count).Error
		if err != nil {
			return response.InternalServerError(c, "Failed to verify subject")
		}
		if count == 0 {
			return response.NotFound(c, "Subject not found")
		}
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "New chat"
	}

	chat := model.Chat{
		StudentID: studentID,
		SubjectID: req.SubjectID,
		Title:     title,
	}
	if err := h.db.Create(&chat).Error; err != nil {
		return response.InternalServerError(c, "Failed to create chat")
	}
	return response.Created(c, chat)
}

// GetMessages handles GET /api/v1/chats/:id/messages
func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	studentID, _ := middleware.GetPrincipalID(c)

	chat, ok := h.findChat(c, studentID)
	if !ok {
		return nil
	}

	var messages []model.ChatMessage
	if err := h.db.Where("chat_id = ?", chat.ID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch messages")
	}
	return response.Success(c, messages)
}

// AddMessage handles POST /api/v1/chats/:id/messages
func (h *ChatHandler) AddMessage(c *fiber.Ctx) error {
	studentID, _ := middleware.GetPrincipalID(c)

	chat, ok := h.findChat(c, studentID)
	if !ok {
		return nil
	}

	var req AddMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	message := model.ChatMessage{
		ChatID:  chat.ID,
		Sender:  model.ChatSenderUser,
		Message: strings.TrimSpace(req.Message),
	}
	if err := h.db.Create(&message).Error; err != nil {
		return response.InternalServerError(c, "Failed to save message")
	}

	// Touch the chat so it sorts to the top of the list
	h.db.Model(chat).Update("updated_at", message.CreatedAt)

	return response.Created(c, message)
}

// DeleteChat handles DELETE /api/v1/chats/:id
func (h *ChatHandler) DeleteChat(c *fiber.Ctx) error {
	studentID, _ := middleware.GetPrincipalID(c)

	chat, ok := h.findChat(c, studentID)
	if !ok {
		return nil
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", chat.ID).Delete(&model.ChatMessage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Chat{}, chat.ID).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to delete chat")
	}
	return response.SuccessWithMessage(c, "Chat deleted successfully", nil)
}

// findChat looks up the chat from the :id param, scoped to the student.
// On failure it writes the error response and returns ok=false.
func (h *ChatHandler) findChat(c *fiber.Ctx, studentID uint) (*model.Chat, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "Invalid chat ID")
		return nil, false
	}

	var chat model.Chat
	if err := h.db.Where("id = ? AND student_id = ?", id, studentID).
		First(&chat).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			response.NotFound(c, "Chat not found")
		} else {
			response.InternalServerError(c, "Failed to fetch chat")
		}
		return nil, false
	}
	return &chat, true
}
