package middleware

import (
	"context"
	"time"

	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// LoggingMiddleware writes one access log line per request. It reads the id
// set by fiber's requestid middleware.
func LoggingMiddleware(log *utils.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Передаем управление следующему обработчику
		err := c.Next()
		if err != nil {
			// Let the app's error handler write the response so the logged
			// status is the one the client sees.
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		fields := []interface{}{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", time.Since(start),
			"ip", c.IP(),
		}
		if id, ok := c.Locals("requestid").(string); ok {
			fields = append(fields, "request_id", id)
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			log.Error("request", fields...)
		case status >= fiber.StatusBadRequest:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
		return nil
	}
}

// Timeout bounds the request's user context. Services pass it to gorm, so a
// slow query is cancelled when the deadline passes.
func Timeout(d time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if d <= 0 {
			return c.Next()
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), d)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}
