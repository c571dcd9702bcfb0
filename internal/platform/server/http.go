package server

import (
	"errors"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/platform/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

const APIPrefix = "/api/v1"

// NewHTTPServer builds the fiber app with the shared middleware chain. Routes are
// registered by the domain handlers on the returned API group.
func NewHTTPServer(log logger.ZapLogger) (*fiber.App, fiber.Router) {
	app := fiber.New(fiber.Config{
		AppName:      "omnipos-stock-service",
		// Values taken from requests may outlive them in the memory store.
		Immutable:    true,
		ErrorHandler: ErrorHandler(log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New())
	app.Use(middleware.RequestLogger(log))
	app.Use(middleware.Actor())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	return app, app.Group(APIPrefix)
}

// StatusOf maps the error taxonomy onto HTTP status codes.
func StatusOf(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, apperr.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperr.ErrParseAmbiguous):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrInvalidTransition), errors.Is(err, apperr.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, apperr.ErrInvalidInput):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func ErrorHandler(log logger.ZapLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := StatusOf(err)
		msg := err.Error()
		if code >= fiber.StatusInternalServerError {
			log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
			if errors.Is(err, apperr.ErrTransactionFailed) {
				msg = apperr.ErrTransactionFailed.Error()
			} else {
				msg = "internal server error"
			}
		}
		return c.Status(code).JSON(fiber.Map{"message": msg})
	}
}
