package handlers

import (
	"github.com/gofiber/fiber/v2"

	"illusion-arcade/config"
)

// SetupPublicRoutes serves client bootstrap values. Only the anon key leaves
// the server.
func SetupPublicRoutes(app *fiber.App, cfg config.AuthConfig, degraded bool) {
	app.Get("/config/public", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"supabaseUrl":     cfg.URL,
			"supabaseAnonKey": cfg.AnonKey,
			"degraded":        degraded,
		})
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
}
