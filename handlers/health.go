package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/opencampus/campus-api/database"
	"github.com/opencampus/campus-api/utils/response"
)

// HandleCheckHealth reports process and database liveness
func HandleCheckHealth(c *fiber.Ctx, store database.Storage) error {
	if err := store.HealthCheck(); err != nil {
		return response.ServiceUnavailable(c, "Database connection is down")
	}
	return response.Success(c, fiber.Map{"status": "ok"})
}
