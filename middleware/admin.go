package middleware

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"illusion-arcade/services"
)

// RequireAdmin must run after Session. Anonymous callers get 401, non-admins 403.
func RequireAdmin(admins services.AdminChecker, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := UserID(c)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
		}
		ok, err := admins.IsAdmin(c.UserContext(), userID)
		if err != nil {
			logger.Error("admin check failed", zap.String("user_id", userID), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load profile"})
		}
		if !ok {
			logger.Warn("admin route denied", zap.String("user_id", userID), zap.String("path", c.Path()))
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin only"})
		}
		return c.Next()
	}
}
