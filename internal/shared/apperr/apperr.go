package apperr

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

var (
	// ErrNotFound covers both a missing vehicle and one owned by someone else.
	ErrNotFound   = errors.New("vehicle not found or access denied")
	ErrValidation = errors.New("validation failed")
)

// Status maps an error to the HTTP status the API answers with.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrValidation):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// InternalMessage replaces the text of any error without a client facing
// status.
const InternalMessage = "internal server error"

// Fiber wraps err into a *fiber.Error carrying the mapped status. Unmapped
// errors are logged and answered with InternalMessage.
func Fiber(err error) error {
	code := Status(err)
	if code == fiber.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		return fiber.NewError(code, InternalMessage)
	}
	return fiber.NewError(code, err.Error())
}
