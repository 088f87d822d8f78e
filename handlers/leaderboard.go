package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"illusion-arcade/middleware"
	"illusion-arcade/services"
)

const leaderboardUnavailable = "Leaderboard unavailable right now."

// SetupLeaderboardRoutes registers the game leaderboard. Reads soft-fail with
// HTTP 200 so a broken board never breaks the game page.
func SetupLeaderboardRoutes(app *fiber.App, g Guards, boards *services.LeaderboardService, logger *zap.Logger) {
	softFail := func(c *fiber.Ctx, err error) error {
		logger.Warn("leaderboard read failed", zap.String("game", c.Query("gameSlug")), zap.Error(err))
		msg := leaderboardUnavailable
		if services.KindOf(err) == services.KindInvalidInput {
			msg = err.Error()
		}
		return c.JSON(fiber.Map{"ok": false, "items": []services.LeaderboardItem{}, "error": msg})
	}

	top := func(c *fiber.Ctx) error {
		res, err := boards.Top(c.UserContext(), c.Query("gameSlug"), c.QueryInt("limit", 0), c.Query("period"))
		if err != nil {
			return softFail(c, err)
		}
		return c.JSON(fiber.Map{"ok": true, "items": res.Items, "gameSlug": res.GameSlug, "limit": res.Limit, "period": res.Period})
	}
	app.Get("/leaderboard/get", top)
	app.Get("/leaderboard", top)

	app.Get("/leaderboard/winners", func(c *fiber.Ctx) error {
		res, err := boards.Winners(c.UserContext(), c.Query("gameSlug"), c.QueryInt("limit", 0))
		if err != nil {
			return softFail(c, err)
		}
		return c.JSON(fiber.Map{"ok": true, "items": res.Items, "gameSlug": res.GameSlug, "limit": res.Limit})
	})

	// Degraded mode accepts anonymous submissions; the service enforces a
	// user whenever a backend is configured.
	submitChain := chain(g.Optional, g.Submit)
	if !boards.Degraded() {
		submitChain = chain(g.Required, g.Submit)
	}
	submit := func(c *fiber.Ctx) error {
		var body struct {
			GameSlug string   `json:"gameSlug"`
			Player   string   `json:"player"`
			Score    *float64 `json:"score"`
		}
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, services.InvalidInput("invalid request body"))
		}
		if body.Score == nil {
			return writeError(c, services.InvalidInput("invalid score"))
		}
		in := services.ScoreSubmission{GameSlug: body.GameSlug, Player: body.Player, Score: *body.Score}
		if err := boards.Submit(c.UserContext(), middleware.UserID(c), in); err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"ok": true})
	}
	submitChain = append(submitChain, submit)
	app.Post("/leaderboard/submit", submitChain...)
	app.Post("/leaderboard", submitChain...)
}
