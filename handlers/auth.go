package handlers

import (
	"github.com/gofiber/fiber/v2"

	"illusion-arcade/middleware"
	"illusion-arcade/services"
)

func SetupAuthRoutes(app *fiber.App, g Guards, profiles *services.ProfileService) {
	app.Get("/auth/me", g.required(func(c *fiber.Ctx) error {
		p, err := profiles.EnsureProfile(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"user_id": p.UserID, "profile": p})
	})...)

	app.Get("/auth/role", g.optional(func(c *fiber.Ctx) error {
		role, err := profiles.Role(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return writeError(c, err)
		}
		if role == "" {
			return c.JSON(fiber.Map{"role": nil})
		}
		return c.JSON(fiber.Map{"role": role})
	})...)

	app.Post("/auth/phone-available", func(c *fiber.Ctx) error {
		var body struct {
			Phone string `json:"phone"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.JSON(fiber.Map{"available": false})
		}
		return c.JSON(fiber.Map{"available": profiles.PhoneAvailable(c.UserContext(), body.Phone)})
	})

	app.Get("/admin/me", append(g.admin(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true, "user_id": middleware.UserID(c), "role": "admin"})
	})...)
}
