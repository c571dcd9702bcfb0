package handler

import (
	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/scan"
	"github.com/gofiber/fiber/v2"
)

type ScanHandler struct {
	scanner *scan.Scanner
	logger  logger.ZapLogger
}

func NewScanHandler(scanner *scan.Scanner, log logger.ZapLogger) *ScanHandler {
	return &ScanHandler{
		scanner: scanner,
		logger:  log,
	}
}

func (h *ScanHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/scan", h.Scan)
}

func (h *ScanHandler) Scan(c *fiber.Ctx) error {
	code := c.Query("code")
	if code == "" {
		return apperr.Invalid("code is required")
	}
	res, err := h.scanner.Scan(c.UserContext(), code)
	if err != nil {
		return err
	}
	return c.JSON(res)
}
