package transport

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/notifylab/notify-agent/internal/domain"
	"go.uber.org/zap"
)

// ErrorHandler renders errors as JSON. Domain sentinels map to their HTTP
// statuses here so handlers can return repository and config errors directly.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := statusFor(err)

		logFn := logger.Warn
		if code >= fiber.StatusInternalServerError {
			logFn = logger.Error
		}
		logFn("request error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		)

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrConfig):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	return fiber.StatusInternalServerError
}
