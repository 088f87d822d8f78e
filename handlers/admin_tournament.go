package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"illusion-arcade/middleware"
	"illusion-arcade/repositories"
	"illusion-arcade/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func SetupAdminTournamentRoutes(app *fiber.App, g Guards, tournaments *services.TournamentService) {
	admin := app.Group("/admin/tournaments", g.admin()...)

	admin.Get("/", func(c *fiber.Ctx) error {
		rows, err := tournaments.AdminList(c.UserContext(), repositories.TournamentFilter{
			Query:    c.Query("q"),
			Status:   c.Query("status"),
			GameSlug: c.Query("gameSlug"),
		})
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"tournaments": rows})
	})

	admin.Post("/upsert", func(c *fiber.Ctx) error {
		var in services.TournamentInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, services.InvalidInput("invalid request body"))
		}
		t, err := tournaments.Upsert(c.UserContext(), in)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"ok": true, "tournament": t})
	})

	admin.Post("/delete", func(c *fiber.Ctx) error {
		var body struct {
			ID string `json:"id"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, services.InvalidInput("invalid request body"))
		}
		if err := tournaments.Delete(c.UserContext(), body.ID); err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"ok": true})
	})

	admin.Post("/finalize", func(c *fiber.Ctx) error {
		var body struct {
			TournamentID string `json:"tournamentId"`
			Force        bool   `json:"force"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, services.InvalidInput("invalid request body"))
		}
		res, err := tournaments.FinalizeAsAdmin(c.UserContext(), middleware.UserID(c), body.TournamentID, body.Force)
		if errors.Is(err, services.ErrAlreadyFinalized) && res != nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"ok":      false,
				"error":   "Tournament already finalized",
				"winners": res.Winners,
			})
		}
		if err != nil {
			return writeError(c, err)
		}
		out := fiber.Map{"ok": true, "winners": res.Winners}
		if res.Message != "" {
			out["message"] = res.Message
		}
		return c.JSON(out)
	})

	admin.Get("/winners", func(c *fiber.Ctx) error {
		winners, err := tournaments.AdminWinners(c.UserContext(), c.Query("tournamentId"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"winners": winners})
	})

	admin.Post("/winners/update", func(c *fiber.Ctx) error {
		var patch services.WinnerPatch
		if err := c.BodyParser(&patch); err != nil {
			return writeError(c, services.InvalidInput("invalid request body"))
		}
		row, err := tournaments.UpdateWinner(c.UserContext(), patch)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"ok": true, "row": row})
	})

	admin.Post("/thumbnail", func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, services.InvalidInput("missing file"))
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, services.InvalidInput("unreadable file"))
		}
		defer f.Close()

		t, err := tournaments.UploadThumbnail(c.UserContext(), c.FormValue("tournamentId"), fh.Filename, fh.Size, f)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"ok": true, "tournament": t})
	})

	admin.Get("/export", func(c *fiber.Ctx) error {
		raw, name, err := tournaments.ExportTournament(c.UserContext(), c.Query("tournamentId"))
		if err != nil {
			return writeError(c, err)
		}
		c.Set(fiber.HeaderContentType, xlsxContentType)
		c.Attachment(name)
		return c.Send(raw)
	})
}
