package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request.
func RequestLogger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		started := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var ferr *fiber.Error
			if errors.As(err, &ferr) {
				status = ferr.Code
			}
		}

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("took", time.Since(started)),
		}
		if subject, ok := c.Locals(SubjectKey).(string); ok && subject != "" {
			fields = append(fields, zap.String("subject", subject))
		}

		if status >= fiber.StatusInternalServerError {
			log.Warn("request", append(fields, zap.Error(err))...)
		} else {
			log.Info("request", fields...)
		}
		return err
	}
}
