package middleware

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/samatvayoga/backend/internal/config"
	"github.com/samatvayoga/backend/internal/dto"
	"github.com/samatvayoga/backend/internal/models"
	"github.com/samatvayoga/backend/internal/rbac"
)

// RequirePermission gates a route on a capability of the signed-in user's
// stored permission set. The shared-secret X-Admin-Token header bypasses
// the check entirely; it is the break-glass gate, not an identity.
// Inactive or missing profiles hold no capabilities.
func RequirePermission(db *gorm.DB, cfg *config.Config, cap rbac.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" && c.Get("X-Admin-Token") == cfg.AdminToken {
			return c.Next()
		}

		userID, err := UserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		var user models.User
		if err := db.First(&user, "id = ?", userID).Error; err != nil {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Access denied",
			})
		}

		if !user.Allowed(cap) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Missing permission: " + string(cap),
			})
		}

		c.Locals("profile", &user)
		return c.Next()
	}
}
