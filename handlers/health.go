package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/campusmind/console-api/database"
)

// HandleCheckHealth reports API and database health
func HandleCheckHealth(c *fiber.Ctx, store database.Storage) error {
	dbStatus := "ok"
	status := fiber.StatusOK

	if err := store.HealthCheck(); err != nil {
		dbStatus = "unavailable"
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status":   "ok",
		"database": dbStatus,
	})
}
