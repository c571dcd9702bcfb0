package handler

import (
	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/platform/server"
	"github.com/fekuna/omnipos-stock-service/internal/serial"
	"github.com/fekuna/omnipos-stock-service/internal/serial/dto"
	"github.com/gofiber/fiber/v2"
)

type SerialHandler struct {
	uc     serial.UseCase
	logger logger.ZapLogger
}

func NewSerialHandler(uc serial.UseCase, log logger.ZapLogger) *SerialHandler {
	return &SerialHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *SerialHandler) RegisterRoutes(r fiber.Router) {
	g := r.Group("/serials")
	g.Get("/", h.FindByNumber)
	g.Get("/:id", h.GetSerial)
	g.Get("/:id/history", h.TraceHistory)
	g.Post("/:id/reclassify", h.Reclassify)

	r.Get("/batches/:id/serials", h.FindAllInBatch)
	r.Get("/products/:id/serials/available", h.AvailableForProduct)
}

func (h *SerialHandler) GetSerial(c *fiber.Ctx) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	s, err := h.uc.GetSerial(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(s)
}

// FindByNumber looks a serial up by number. With product_id and batch_uid it uses the
// composite key, otherwise it returns every exact match.
func (h *SerialHandler) FindByNumber(c *fiber.Ctx) error {
	number := c.Query("number")
	if number == "" {
		return apperr.Invalid("number is required")
	}
	if uid := c.Query("batch_uid"); uid != "" {
		pid := c.QueryInt("product_id")
		if pid <= 0 {
			return apperr.Invalid("product_id is required with batch_uid")
		}
		s, err := h.uc.FindByCompositeKey(c.UserContext(), int64(pid), uid, number)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"items": []model.Serial{*s}})
	}
	items, err := h.uc.FindByExactMatch(c.UserContext(), number)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"items": items})
}

func (h *SerialHandler) FindAllInBatch(c *fiber.Ctx) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	items, err := h.uc.FindAllInBatch(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"items": items})
}

func (h *SerialHandler) AvailableForProduct(c *fiber.Ctx) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	items, err := h.uc.AvailableForProduct(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"items": items})
}

func (h *SerialHandler) TraceHistory(c *fiber.Ctx) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	hist, err := h.uc.TraceHistory(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(hist)
}

type reclassifyRequest struct {
	Status model.SerialStatus `json:"status"`
	Reason string             `json:"reason"`
}

func (h *SerialHandler) Reclassify(c *fiber.Ctx) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	var req reclassifyRequest
	if err := server.BindJSON(c, &req); err != nil {
		return err
	}
	s, err := h.uc.Reclassify(c.UserContext(), &dto.ReclassifyInput{SerialID: id, To: req.Status, Reason: req.Reason})
	if err != nil {
		return err
	}
	return c.JSON(s)
}
