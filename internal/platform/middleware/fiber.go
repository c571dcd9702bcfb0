package middleware

import (
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// Actor copies the X-User-ID header onto the request context so ledger entries
// record who made the change. The header value is copied out of the request buffer,
// which fasthttp reuses once the request is done.
func Actor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if actor := c.Get(auth.ActorHeader); actor != "" {
			c.SetUserContext(auth.WithActor(c.UserContext(), utils.CopyString(actor)))
		}
		return c.Next()
	}
}

// RequestLogger writes one line per request once the handler chain has returned.
func RequestLogger(log logger.ZapLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		// Errors are rendered here so the logged status is the one sent.
		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		if rid, ok := c.Locals("requestid").(string); ok {
			fields = append(fields, zap.String("request_id", rid))
		}
		log.Info("http request", fields...)
		return nil
	}
}
