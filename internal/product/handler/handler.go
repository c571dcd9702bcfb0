package handler

import (
	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/platform/server"
	"github.com/fekuna/omnipos-stock-service/internal/product"
	"github.com/fekuna/omnipos-stock-service/internal/product/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ProductHandler) RegisterRoutes(r fiber.Router) {
	g := r.Group("/products")
	g.Post("/", h.CreateProduct)
	g.Get("/lookup", h.ResolveCode)
	g.Get("/:id", h.GetProduct)
	g.Get("/:id/stock", h.StockSummary)
}

type createProductRequest struct {
	Code            string             `json:"code"`
	Barcode         string             `json:"barcode"`
	Name            string             `json:"name"`
	Price           decimal.Decimal    `json:"price"`
	TrackingType    model.TrackingType `json:"tracking_type"`
	InitialQuantity int64              `json:"initial_quantity"`
}

func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req createProductRequest
	if err := server.BindJSON(c, &req); err != nil {
		return err
	}

	p, err := h.uc.CreateProduct(c.UserContext(), &dto.CreateProductInput{
		Code:            req.Code,
		Barcode:         req.Barcode,
		Name:            req.Name,
		Price:           req.Price,
		TrackingType:    req.TrackingType,
		InitialQuantity: req.InitialQuantity,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.uc.GetProduct(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (h *ProductHandler) ResolveCode(c *fiber.Ctx) error {
	code := c.Query("code")
	if code == "" {
		return apperr.Invalid("code is required")
	}
	p, err := h.uc.ResolveCode(c.UserContext(), code)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (h *ProductHandler) StockSummary(c *fiber.Ctx) error {
	id, err := server.ParamID(c, "id")
	if err != nil {
		return err
	}
	s, err := h.uc.StockSummary(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(s)
}
