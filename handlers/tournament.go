package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"illusion-arcade/middleware"
	"illusion-arcade/services"
)

func SetupTournamentRoutes(app *fiber.App, g Guards, tournaments *services.TournamentService, live *services.LiveTracker) {
	app.Get("/tournaments", func(c *fiber.Ctx) error {
		rows, err := tournaments.ListTournaments(c.UserContext())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"tournaments": rows})
	})

	app.Get("/tournaments/by-slug", func(c *fiber.Ctx) error {
		t, err := tournaments.GetBySlug(c.UserContext(), c.Query("slug"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"tournament": t})
	})

	app.Get("/tournaments/leaderboard", func(c *fiber.Ctx) error {
		board, err := tournaments.Leaderboard(c.UserContext(), c.Query("slug"), c.QueryInt("limit", 0))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(board)
	})

	app.Get("/tournaments/check-conflict", func(c *fiber.Ctx) error {
		startsAt, err := parseTime(c.Query("startsAt"))
		if err != nil {
			return writeError(c, services.InvalidInput("invalid startsAt"))
		}
		endsAt, err := parseTime(c.Query("endsAt"))
		if err != nil {
			return writeError(c, services.InvalidInput("invalid endsAt"))
		}
		matches, err := tournaments.CheckConflict(c.UserContext(), c.Query("gameSlug"), startsAt, endsAt, c.Query("excludeId"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"conflict": len(matches) > 0, "matches": matches})
	})

	// Forced refreshes belong to the live games worker; callers always get
	// the throttled snapshot.
	app.Get("/tournaments/live-games", func(c *fiber.Ctx) error {
		return c.JSON(live.Get(c.UserContext(), false))
	})

	app.Get("/tournaments/winners", func(c *fiber.Ctx) error {
		res, err := tournaments.Winners(c.UserContext(), c.Query("slug"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(res)
	})

	app.Post("/tournaments/submit", g.submit(func(c *fiber.Ctx) error {
		var body struct {
			TournamentSlug string   `json:"tournamentSlug"`
			Score          *float64 `json:"score"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, services.InvalidInput("invalid request body"))
		}
		if body.Score == nil {
			return writeError(c, services.InvalidInput("invalid score"))
		}
		res, err := tournaments.SubmitScore(c.UserContext(), middleware.UserID(c), body.TournamentSlug, *body.Score)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(res)
	})...)
}

// parseTime accepts RFC 3339 with or without fractional seconds. Empty input
// yields the zero time.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
