package handler

import (
	"bufio"
	"context"
	"encoding/json"

	"github.com/fekuna/omnipos-stock-service/internal/label"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/platform/server"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type LabelHandler struct {
	builder *label.Builder
	logger  logger.ZapLogger
}

func NewLabelHandler(builder *label.Builder, log logger.ZapLogger) *LabelHandler {
	return &LabelHandler{
		builder: builder,
		logger:  log,
	}
}

func (h *LabelHandler) RegisterRoutes(r fiber.Router) {
	r.Post("/labels", h.Build)
}

// Build streams the payloads as one JSON array. Request errors are reported before the
// first byte; a failure mid-stream truncates the array and is only logged.
func (h *LabelHandler) Build(c *fiber.Ctx) error {
	var req label.Request
	if err := server.BindJSON(c, &req); err != nil {
		return err
	}

	// The stream writer runs after the handler returns, so it must not touch c.
	ctx := context.WithoutCancel(c.UserContext())
	seq, err := h.builder.Build(ctx, req)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		enc := json.NewEncoder(w)
		n := 0
		_, _ = w.WriteString("[")
		for l, err := range seq {
			if err != nil {
				h.logger.Error("label stream aborted", zap.Int("written", n), zap.Error(err))
				break
			}
			if n > 0 {
				_, _ = w.WriteString(",")
			}
			if err := enc.Encode(l); err != nil {
				h.logger.Error("label encode failed", zap.Error(err))
				break
			}
			n++
			if n%100 == 0 {
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
		_, _ = w.WriteString("]")
		_ = w.Flush()
	})
	return nil
}
