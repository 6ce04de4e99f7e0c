package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Status maps an error kind to the HTTP status code used by every handler.
func Status(k Kind) int {
	switch k {
	case KindValidation, KindEmptyCart, KindInsufficientStock, KindInvalidState:
		return fiber.StatusBadRequest
	case KindNotFound:
		return fiber.StatusNotFound
	case KindUnauthorized:
		return fiber.StatusUnauthorized
	case KindForbidden:
		return fiber.StatusForbidden
	case KindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// Respond writes err as a JSON error body. Unclassified errors are logged
// and answered with a generic message so driver errors never leak.
func Respond(c *fiber.Ctx, err error) error {
	var e *Error
	if !errors.As(err, &e) {
		zap.L().Error("unhandled error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   KindInternal,
			"message": "internal server error",
		})
	}

	body := fiber.Map{"error": e.Kind, "message": e.Message}
	if e.Kind == KindInsufficientStock {
		body["productId"] = e.ProductID
	}
	return c.Status(Status(e.Kind)).JSON(body)
}
