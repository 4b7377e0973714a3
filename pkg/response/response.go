package response

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// Response is the envelope every API answer is wrapped in.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Total   *int   `json:"total,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK sends a 200 response carrying data.
func OK(c *fiber.Ctx, message string, data any) error {
	return c.JSON(Response{Success: true, Message: message, Data: data})
}

// Created sends a 201 response carrying data.
func Created(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusCreated).JSON(Response{Success: true, Message: message, Data: data})
}

// List sends a 200 response for an unpaged collection along with its size.
func List(c *fiber.Ctx, message string, data any, total int) error {
	return c.JSON(Response{Success: true, Message: message, Data: data, Total: &total})
}

// Error sends a failed response with the given status.
func Error(c *fiber.Ctx, code int, message string) error {
	return c.Status(code).JSON(Response{Success: false, Message: message, Error: message})
}

// ErrorHandler renders errors returned from handlers, including
// fiber.NewError values, as the envelope. Any other error is logged and
// answered with a generic 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		return Error(c, fe.Code, fe.Message)
	}
	slog.Error("unhandled request error", "path", c.Path(), "error", err)
	return Error(c, fiber.StatusInternalServerError, "internal server error")
}
