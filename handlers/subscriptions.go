package handlers

import (
	"github.com/gofiber/fiber/v2"

	"illusion-arcade/middleware"
	"illusion-arcade/services"
)

func SetupSubscriptionRoutes(app *fiber.App, g Guards, subs *services.SubscriptionService) {
	app.Get("/subscriptions/me", g.optional(func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-store, no-cache, must-revalidate")
		st, err := subs.Me(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(st)
	})...)

	app.Get("/subscriptions/plans", func(c *fiber.Ctx) error {
		plans, err := subs.ListPlans(c.UserContext())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"plans": plans})
	})

	activate := func(c *fiber.Ctx) error {
		var body struct {
			Plan string `json:"plan"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, services.InvalidInput("invalid request body"))
		}
		sub, err := subs.ActivateDummy(c.UserContext(), middleware.UserID(c), body.Plan)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"ok": true, "subscription": sub})
	}
	app.Post("/subscriptions/activate", g.required(activate)...)
	app.Post("/subscriptions/dummy-activate", g.required(activate)...)
}
