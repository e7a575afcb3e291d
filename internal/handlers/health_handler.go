package handlers

import (
	"time"

	"github.com/Thierryn8n/MetalFly/internal/database"
	"github.com/Thierryn8n/MetalFly/internal/dto"
	"github.com/gofiber/fiber/v2"
)

func HealthCheck(c *fiber.Ctx) error {
	dbStatus := "up"
	if err := database.Ping(); err != nil {
		dbStatus = "down"
	}

	status := "ok"
	code := fiber.StatusOK
	if dbStatus == "down" {
		status = "degraded"
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
	})
}
