package handler

import (
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/platform/server"
	"github.com/fekuna/omnipos-stock-service/internal/stock"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

const IdempotencyHeader = "Idempotency-Key"

type StockHandler struct {
	uc     stock.UseCase
	ledger *ledger.Ledger
	logger logger.ZapLogger
}

func NewStockHandler(uc stock.UseCase, l *ledger.Ledger, log logger.ZapLogger) *StockHandler {
	return &StockHandler{
		uc:     uc,
		ledger: l,
		logger: log,
	}
}

func (h *StockHandler) RegisterRoutes(r fiber.Router) {
	r.Post("/adjustments", h.AdjustManual)
	r.Get("/adjustments/:id", h.GetEntry)
	r.Post("/sales", h.RecordSale)
	r.Post("/returns", h.RecordReturn)
	r.Get("/products/:id/adjustments", h.History)
}

// idempotencyKey returns the header key copied out of the request buffer, or fallback.
func idempotencyKey(c *fiber.Ctx, fallback string) string {
	if key := c.Get(IdempotencyHeader); key != "" {
		return utils.CopyString(key)
	}
	return fallback
}

// AdjustManual answers 201 for a new adjustment and 200 for a replay. serial_id is only
// accepted with a negative delta; adding units goes through batch_id or the untracked
// stock.
func (h *StockHandler) AdjustManual(c *fiber.Ctx) error {
	var req dto.AdjustInput
	if err := server.BindJSON(c, &req); err != nil {
		return err
	}
	req.IdempotencyKey = idempotencyKey(c, req.IdempotencyKey)
	res, err := h.uc.AdjustManual(c.UserContext(), &req)
	if err != nil {
		return err
	}
	status := fiber.StatusCreated
	if res.Replayed {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(res)
}

func (h *StockHandler) GetEntry(c *fiber.Ctx) error {
	e, err := h.ledger.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(e)
}

// RecordSale and RecordReturn accept an Idempotency-Key header; a repeated document
// returns the entries of its first recording.
func (h *StockHandler) RecordSale(c *fiber.Ctx) error {
	var doc dto.Document
	if err := server.BindJSON(c, &doc); err != nil {
		return err
	}
	doc.IdempotencyKey = idempotencyKey(c, doc.IdempotencyKey)
	entries, err := h.uc.RecordSale(c.UserContext(), &doc)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"items": entries})
}

func (h *StockHandler) RecordReturn(c *fiber.Ctx) error {
	var doc dto.Document
	if err := server.BindJSON(c, &doc); err != nil {
		return err
	}
	doc.IdempotencyKey = idempotencyKey(c, doc.IdempotencyKey)
	entries, err := h.uc.RecordReturn(c.UserContext(), &doc)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"items": entries})
}

func (h *StockHandler) History(c *fiber.Ctx) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	page, pageSize := c.QueryInt("page", 1), c.QueryInt("page_size", 50)
	items, err := h.uc.History(c.UserContext(), id, page, pageSize)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"items": items, "page": page, "page_size": pageSize})
}
