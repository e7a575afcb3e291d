package middleware

import (
	"strings"

	"github.com/Thierryn8n/MetalFly/internal/config"
	"github.com/Thierryn8n/MetalFly/internal/dto"
	"github.com/Thierryn8n/MetalFly/internal/models"
	"github.com/Thierryn8n/MetalFly/internal/scope"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AdminRequired grants access when any of the following holds:
// 1. the X-Admin-Token header matches the bcrypt-hashed operator token
// 2. the JWT email is on the configured admin list
// 3. the user's profile row carries an admin role
func AdminRequired(db *gorm.DB, cfg *config.Config) fiber.Handler {
	adminEmails := parseCSV(cfg.AdminEmails)

	return func(c *fiber.Ctx) error {
		if cfg.AdminTokenHash != "" {
			if token := c.Get("X-Admin-Token"); token != "" {
				if bcrypt.CompareHashAndPassword([]byte(cfg.AdminTokenHash), []byte(token)) == nil {
					return c.Next()
				}
			}
		}

		email := scope.GetEmail(c)
		if email != "" && contains(adminEmails, email) {
			return c.Next()
		}

		userID, err := scope.GetUserID(c)
		if err == nil {
			var profile models.Profile
			if err := db.First(&profile, "id = ?", userID).Error; err == nil {
				if profile.Role.IsAdmin() {
					return c.Next()
				}
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Admin access required",
		})
	}
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
