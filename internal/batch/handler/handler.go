package handler

import (
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/batch"
	"github.com/fekuna/omnipos-stock-service/internal/batch/dto"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/platform/server"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type BatchHandler struct {
	uc     batch.UseCase
	logger logger.ZapLogger
}

func NewBatchHandler(uc batch.UseCase, log logger.ZapLogger) *BatchHandler {
	return &BatchHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *BatchHandler) RegisterRoutes(r fiber.Router) {
	g := r.Group("/batches")
	g.Post("/", h.CreateBatch)
	g.Post("/receipts", h.ReceivePurchase)
	g.Post("/assign", h.AssignUntrackedStock)
	g.Get("/:id", h.GetBatch)
	g.Get("/:id/details", h.FindBatchDetails)
	g.Post("/:id/deactivate", h.DeactivateBatch)

	r.Get("/products/:id/batches", h.BatchesForProduct)
}

type createBatchRequest struct {
	ProductID     int64               `json:"product_id"`
	PurchaseID    *int64              `json:"purchase_id"`
	BatchNumber   string              `json:"batch_number"`
	ExpiryDate    string              `json:"expiry_date"`
	MfgDate       string              `json:"mfg_date"`
	MRP           decimal.NullDecimal `json:"mrp"`
	MOP           decimal.NullDecimal `json:"mop"`
	MFW           decimal.NullDecimal `json:"mfw"`
	Quantity      int64               `json:"quantity"`
	Location      string              `json:"location"`
	SerialNumbers []string            `json:"serial_numbers"`
	SerialText    string              `json:"serial_text"`
	Reason        string              `json:"reason"`
}

func (r *createBatchRequest) input() (*dto.CreateBatchInput, error) {
	expiry, err := parseDate("expiry_date", r.ExpiryDate)
	if err != nil {
		return nil, err
	}
	mfg, err := parseDate("mfg_date", r.MfgDate)
	if err != nil {
		return nil, err
	}
	return &dto.CreateBatchInput{
		ProductID:     r.ProductID,
		PurchaseID:    r.PurchaseID,
		BatchNumber:   r.BatchNumber,
		ExpiryDate:    expiry,
		MfgDate:       mfg,
		MRP:           r.MRP,
		MOP:           r.MOP,
		MFW:           r.MFW,
		Quantity:      r.Quantity,
		Location:      r.Location,
		SerialNumbers: r.SerialNumbers,
		SerialText:    r.SerialText,
		Reason:        r.Reason,
	}, nil
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp.
func parseDate(field, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{dateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	return nil, apperr.Invalid("%s must be a date (YYYY-MM-DD)", field)
}

type createFunc func(*fiber.Ctx, *dto.CreateBatchInput) (*dto.CreateBatchResult, error)

func (h *BatchHandler) create(c *fiber.Ctx, fn createFunc) error {
	var req createBatchRequest
	if err := server.BindJSON(c, &req); err != nil {
		return err
	}
	input, err := req.input()
	if err != nil {
		return err
	}
	res, err := fn(c, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (h *BatchHandler) CreateBatch(c *fiber.Ctx) error {
	return h.create(c, func(c *fiber.Ctx, in *dto.CreateBatchInput) (*dto.CreateBatchResult, error) {
		return h.uc.CreateBatch(c.UserContext(), in)
	})
}

func (h *BatchHandler) ReceivePurchase(c *fiber.Ctx) error {
	return h.create(c, func(c *fiber.Ctx, in *dto.CreateBatchInput) (*dto.CreateBatchResult, error) {
		return h.uc.ReceivePurchase(c.UserContext(), in)
	})
}

func (h *BatchHandler) AssignUntrackedStock(c *fiber.Ctx) error {
	return h.create(c, func(c *fiber.Ctx, in *dto.CreateBatchInput) (*dto.CreateBatchResult, error) {
		return h.uc.AssignUntrackedStock(c.UserContext(), in)
	})
}

func (h *BatchHandler) GetBatch(c *fiber.Ctx) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	b, err := h.uc.GetBatch(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(b)
}

func (h *BatchHandler) FindBatchDetails(c *fiber.Ctx) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.uc.FindBatchDetails(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(d)
}

func (h *BatchHandler) DeactivateBatch(c *fiber.Ctx) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	if err := h.uc.DeactivateBatch(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *BatchHandler) BatchesForProduct(c *fiber.Ctx) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	items, err := h.uc.BatchesForProduct(c.UserContext(), id, c.QueryBool("include_inactive", false))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"items": items})
}
