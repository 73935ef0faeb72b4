package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ustaconnect/backend/internal/apperr"
)

// ok writes the success envelope used across the API.
func ok(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// fail maps a business error onto the matching HTTP status. Unclassified
// errors are logged and surfaced as a generic 500 without leaking internals.
func fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "internal server error"

	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status, message = fiber.StatusBadRequest, err.Error()
	case apperr.KindNotFound:
		status, message = fiber.StatusNotFound, err.Error()
	case apperr.KindForbidden:
		status, message = fiber.StatusForbidden, err.Error()
	case apperr.KindUnauthorized:
		status, message = fiber.StatusUnauthorized, err.Error()
	case apperr.KindConflict:
		status, message = fiber.StatusConflict, err.Error()
	default:
		log.Printf("handler error: %v", err)
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

// currentUserID reads the authenticated user id placed in locals by the JWT
// middleware.
func currentUserID(c *fiber.Ctx) (uuid.UUID, error) {
	raw := c.Locals("userId")
	if raw == nil {
		return uuid.Nil, apperr.Unauthorized("unauthorized")
	}
	s, ok := raw.(string)
	if !ok {
		return uuid.Nil, apperr.Unauthorized("unauthorized")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, apperr.Unauthorized("unauthorized")
	}
	return id, nil
}
