package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"illusion-arcade/services"
)

// SetupCronRoutes exposes the snapshot procedures to an external scheduler.
func SetupCronRoutes(app *fiber.App, g Guards, snapshots *services.SnapshotService) {
	cron := app.Group("/cron", chain(g.Cron)...)

	cron.Post("/daily", func(c *fiber.Ctx) error {
		runDate, err := optionalDate(c.Query("date"))
		if err != nil {
			return writeError(c, err)
		}
		res, err := snapshots.ComputeDaily(c.UserContext(), runDate)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(res)
	})

	cron.Post("/weekly", func(c *fiber.Ctx) error {
		weekStart, err := optionalDate(c.Query("weekStart"))
		if err != nil {
			return writeError(c, err)
		}
		res, err := snapshots.ComputeWeekly(c.UserContext(), weekStart)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(res)
	})
}

func optionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return services.ParseSnapshotDate(s)
}
