package handlers

import (
	"github.com/gofiber/fiber/v2"

	"illusion-arcade/middleware"
	"illusion-arcade/services"
)

func SetupContentRoutes(app *fiber.App, g Guards, content *services.ContentService) {
	app.Get("/games", func(c *fiber.Ctx) error {
		games, err := content.Games(c.UserContext())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"games": games})
	})

	app.Get("/games/:slug", func(c *fiber.Ctx) error {
		game, err := content.Game(c.UserContext(), c.Params("slug"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"game": game})
	})

	app.Get("/works", func(c *fiber.Ctx) error {
		works, err := content.Works(c.UserContext())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"works": works})
	})

	app.Get("/works/by-slug", func(c *fiber.Ctx) error {
		work, err := content.WorkBySlug(c.UserContext(), c.Query("slug"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"work": work})
	})

	app.Get("/services", func(c *fiber.Ctx) error {
		rows, err := content.StudioServices(c.UserContext())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"services": rows})
	})

	app.Post("/contact", g.optional(func(c *fiber.Ctx) error {
		var in services.ContactInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, services.InvalidInput("invalid request body"))
		}
		in.UserID = middleware.UserID(c)
		in.IP = c.IP()
		in.UserAgent = c.Get(fiber.HeaderUserAgent)
		if err := content.SubmitContact(c.UserContext(), in); err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"ok": true})
	})...)

	app.Post("/admin/services/reorder", append(g.admin(), func(c *fiber.Ctx) error {
		var body struct {
			IDs []string `json:"ids"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, services.InvalidInput("invalid request body"))
		}
		if err := content.ReorderStudioServices(c.UserContext(), body.IDs); err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"ok": true})
	})...)
}
