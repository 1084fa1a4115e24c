package console

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/campusmind/console-api/navigator"
	"github.com/campusmind/console-api/utils/middleware"
	"github.com/campusmind/console-api/utils/response"
)

// ConsoleHandler exposes the hierarchy navigator to admin clients. Each
// admin gets one session; the server keeps selections consistent so clients
// never see a child list that belongs to a previous parent.
type ConsoleHandler struct {
	registry *navigator.Registry
}

// NewConsoleHandler creates a new console handler
func NewConsoleHandler(registry *navigator.Registry) *ConsoleHandler {
	return &ConsoleHandler{registry: registry}
}

// SelectRequest represents the request body for a selection change
type SelectRequest struct {
	Level string `json:"level"`
	ID    uint   `json:"id"`
}

func (h *ConsoleHandler) session(c *fiber.Ctx) *navigator.Session {
	adminID, _ := middleware.GetPrincipalID(c)
	universityID, _ := middleware.GetUniversityID(c)
	return h.registry.Session(adminID, universityID)
}

// GetState handles GET /api/v1/console/navigator
func (h *ConsoleHandler) GetState(c *fiber.Ctx) error {
	return response.Success(c, h.session(c).State())
}

// Refresh handles POST /api/v1/console/navigator/refresh. Reloads the branch
// list and re-resolves default selections down the tree.
func (h *ConsoleHandler) Refresh(c *fiber.Ctx) error {
	session := h.session(c)
	session.Refresh(c.Context())
	return response.Success(c, session.State())
}

// Select handles POST /api/v1/console/navigator/select
func (h *ConsoleHandler) Select(c *fiber.Ctx) error {
	var req SelectRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	level, ok := navigator.ParseLevel(req.Level)
	if !ok {
		return response.BadRequest(c, "Level must be branch, semester or subject")
	}
	if req.ID == 0 {
		return response.BadRequest(c, "Missing id")
	}

	session := h.session(c)
	if err := session.Select(c.Context(), level, req.ID); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, session.State())
}

// SelectByQuery handles POST /api/v1/console/navigator/select/:level/:id as
// a convenience for clients that prefer path parameters
func (h *ConsoleHandler) SelectByQuery(c *fiber.Ctx) error {
	level, ok := navigator.ParseLevel(c.Params("level"))
	if !ok {
		return response.BadRequest(c, "Level must be branch, semester or subject")
	}
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return response.BadRequest(c, "Invalid id")
	}

	session := h.session(c)
	if err := session.Select(c.Context(), level, uint(id)); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, session.State())
}
