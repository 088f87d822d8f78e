package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"illusion-arcade/services"
)

// statusFor maps a service error kind to its HTTP status.
func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindUnauthenticated:
		return fiber.StatusUnauthorized
	case services.KindForbidden:
		return fiber.StatusForbidden
	case services.KindPaymentRequired:
		return fiber.StatusPaymentRequired
	case services.KindInvalidInput:
		return fiber.StatusBadRequest
	case services.KindNotFound:
		return fiber.StatusNotFound
	case services.KindConflict, services.KindAlreadyFinalized:
		return fiber.StatusConflict
	case services.KindTooEarly:
		return fiber.StatusTooEarly
	case services.KindRateLimited:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError renders err as {"error": message}. Upstream failures hide the
// wrapped cause.
func writeError(c *fiber.Ctx, err error) error {
	kind := services.KindOf(err)
	msg := "internal error"
	var se *services.Error
	if errors.As(err, &se) && se.Message != "" {
		msg = se.Message
	}
	return c.Status(statusFor(kind)).JSON(fiber.Map{"error": msg})
}

// ErrorHandler is the app-wide fallback for errors returned by handlers.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	return writeError(c, err)
}
