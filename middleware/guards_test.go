package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"illusion-arcade/metrics"
)

type adminSet map[string]bool

func (a adminSet) IsAdmin(_ context.Context, userID string) (bool, error) {
	if userID == "broken" {
		return false, errors.New("db down")
	}
	return a[userID], nil
}

func status(t *testing.T, app *fiber.App, method, target, token string) int {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	tok, err := SignToken(testSecret, userID, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestRequireAdmin(t *testing.T) {
	app := fiber.New()
	app.Get("/admin", Session(testSecret, false), RequireAdmin(adminSet{"boss": true}, zap.NewNop()), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, "GET", "/admin", ""))
	assert.Equal(t, fiber.StatusForbidden, status(t, app, "GET", "/admin", tokenFor(t, "u1")))
	assert.Equal(t, fiber.StatusInternalServerError, status(t, app, "GET", "/admin", tokenFor(t, "broken")))
	assert.Equal(t, fiber.StatusNoContent, status(t, app, "GET", "/admin", tokenFor(t, "boss")))
}

func TestCronSecret(t *testing.T) {
	app := fiber.New()
	app.Post("/cron", CronSecret("s3cret"), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, "POST", "/cron", ""))
	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, "POST", "/cron?secret=nope", ""))
	assert.Equal(t, fiber.StatusOK, status(t, app, "POST", "/cron?secret=s3cret", ""))

	req := httptest.NewRequest("POST", "/cron", nil)
	req.Header.Set("X-Cron-Secret", "s3cret")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	unset := fiber.New()
	unset.Post("/cron", CronSecret(""), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	assert.Equal(t, fiber.StatusUnauthorized, status(t, unset, "POST", "/cron?secret=", ""))
}

func TestRateLimit_PerUser(t *testing.T) {
	limiter := NewKeyedRateLimiter(rate.Every(time.Hour), 2)
	app := fiber.New()
	app.Post("/submit", Session(testSecret, false), RateLimit(limiter), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	alice := tokenFor(t, "alice")
	assert.Equal(t, fiber.StatusOK, status(t, app, "POST", "/submit", alice))
	assert.Equal(t, fiber.StatusOK, status(t, app, "POST", "/submit", alice))
	assert.Equal(t, fiber.StatusTooManyRequests, status(t, app, "POST", "/submit", alice))

	assert.Equal(t, fiber.StatusOK, status(t, app, "POST", "/submit", tokenFor(t, "bob")), "buckets are per user")
}

func TestKeyedRateLimiter_PrunesIdle(t *testing.T) {
	l := NewKeyedRateLimiter(rate.Limit(1), 1)
	for i := range cleanupThreshold + 1 {
		l.Limiter(fmt.Sprintf("user-%d", i))
	}
	stale := time.Now().Add(-2 * maxIdleAge)
	l.mu.Lock()
	for _, e := range l.entries {
		e.lastSeen = stale
	}
	l.mu.Unlock()

	l.Limiter("fresh")
	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Len(t, l.entries, 1)
}

func TestRequestLogger(t *testing.T) {
	m := metrics.New()
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), m))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/boom", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })

	assert.Equal(t, fiber.StatusOK, status(t, app, "GET", "/ok", ""))
	assert.Equal(t, fiber.StatusTeapot, status(t, app, "GET", "/boom", ""))

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() == "arcade_http_request_duration_seconds" {
			found = true
			assert.Len(t, f.GetMetric(), 2)
		}
	}
	assert.True(t, found)
}
