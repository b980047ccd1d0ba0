package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrNotFound lets services signal a missing resource without importing fiber.
var ErrNotFound = errors.New("resource not found")

// ErrorHandlerMiddleware converts errors returned by later handlers into the
// standard response envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return WriteError(ctx, err)
	}
}

func WriteError(ctx *fiber.Ctx, err error) error {
	var fe FieldErrorer
	if errors.As(err, &fe) {
		return ctx.Status(fiber.StatusUnprocessableEntity).
			JSON(ValidationErrorResponse("Validation failed", fe.FieldErrors()))
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
	}

	if errors.Is(err, ErrNotFound) {
		return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse(fiber.StatusNotFound, err.Error()))
	}

	return ctx.Status(fiber.StatusInternalServerError).
		JSON(ErrorResponse(fiber.StatusInternalServerError, "Internal server error"))
}
