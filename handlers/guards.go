package handlers

import "github.com/gofiber/fiber/v2"

// Guards are the middleware chains routes pick from. A nil guard is skipped.
type Guards struct {
	// Optional attaches the caller when a valid token is present.
	Optional fiber.Handler
	// Required rejects anonymous callers.
	Required fiber.Handler
	// Admin runs after Required and rejects non-admins.
	Admin fiber.Handler
	// Submit throttles score submissions.
	Submit fiber.Handler
	// Cron checks the scheduled-job secret.
	Cron fiber.Handler
}

func chain(handlers ...fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

func (g Guards) optional(h fiber.Handler) []fiber.Handler {
	return chain(g.Optional, h)
}

func (g Guards) required(h fiber.Handler) []fiber.Handler {
	return chain(g.Required, h)
}

func (g Guards) submit(h fiber.Handler) []fiber.Handler {
	return chain(g.Required, g.Submit, h)
}

func (g Guards) admin() []fiber.Handler {
	return chain(g.Required, g.Admin)
}
