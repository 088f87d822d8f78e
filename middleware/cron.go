package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// CronSecret guards scheduled-job endpoints. The secret is read from the
// "secret" query parameter or the X-Cron-Secret header. An unset secret
// rejects every call.
func CronSecret(secret string) fiber.Handler {
	want := []byte(secret)
	return func(c *fiber.Ctx) error {
		got := c.Query("secret")
		if got == "" {
			got = c.Get("X-Cron-Secret")
		}
		if len(want) == 0 || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}
		return c.Next()
	}
}
