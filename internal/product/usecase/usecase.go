package usecase

import (
	"context"
	"strings"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/product"
	"github.com/fekuna/omnipos-stock-service/internal/product/dto"
	"github.com/fekuna/omnipos-stock-service/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("omnipos-stock-service/product")

type productUseCase struct {
	tx     store.Manager
	ledger *ledger.Ledger
	cache  product.CodeCache
	logger logger.ZapLogger
}

// NewProductUseCase wires the catalog. cache may be nil.
func NewProductUseCase(tx store.Manager, l *ledger.Ledger, cache product.CodeCache, log logger.ZapLogger) product.UseCase {
	return &productUseCase{
		tx:     tx,
		ledger: l,
		cache:  cache,
		logger: log,
	}
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	ctx, span := tracer.Start(ctx, "CreateProduct")
	defer span.End()

	code := strings.TrimSpace(input.Code)
	if code == "" || strings.TrimSpace(input.Name) == "" {
		return nil, apperr.Invalid("product code and name are required")
	}
	tracking := input.TrackingType
	if tracking == "" {
		tracking = model.TrackingNone
	}
	if !tracking.Valid() {
		return nil, apperr.Invalid("unknown tracking type %q", tracking)
	}
	if input.InitialQuantity < 0 {
		return nil, apperr.Invalid("initial quantity must not be negative")
	}

	var barcode *string
	if bc := strings.TrimSpace(input.Barcode); bc != "" {
		barcode = &bc
	}

	p := &model.Product{
		Code:         code,
		Barcode:      barcode,
		Name:         strings.TrimSpace(input.Name),
		Price:        input.Price,
		TrackingType: tracking,
		IsActive:     true,
	}

	err := uc.tx.WithinTx(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		if err := uow.Products().Create(ctx, p); err != nil {
			return err
		}
		if input.InitialQuantity == 0 {
			return nil
		}
		// Opening stock is untracked until it is assigned to batches.
		oldQty, newQty, err := uow.Products().AddQuantity(ctx, p.ID, input.InitialQuantity)
		if err != nil {
			return err
		}
		p.Quantity = newQty
		return uc.ledger.Append(ctx, uow, &model.AdjustmentEntry{
			ProductID:   p.ID,
			Category:    model.CategoryCountCorrection,
			OldQuantity: oldQty,
			NewQuantity: newQty,
			Delta:       input.InitialQuantity,
			Reason:      "opening stock",
			Actor:       auth.GetActor(ctx),
		})
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int64("product.id", p.ID))
	uc.logger.Info("product created", zap.Int64("product_id", p.ID), zap.String("code", p.Code))
	return p, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	p, err := uc.tx.Reader().Products().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("product", id)
	}
	return p, nil
}

func (uc *productUseCase) ResolveCode(ctx context.Context, code string) (*model.Product, error) {
	ctx, span := tracer.Start(ctx, "ResolveCode")
	defer span.End()

	products := uc.tx.Reader().Products()

	if uc.cache != nil {
		id, ok, err := uc.cache.Get(ctx, code)
		if err != nil {
			uc.logger.Warn("product code cache read failed", zap.String("code", code), zap.Error(err))
		}
		if ok {
			p, err := products.FindByID(ctx, id)
			if err != nil {
				return nil, err
			}
			if p != nil {
				return p, nil
			}
		}
	}

	p, err := products.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("product code", code)
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, code, p.ID); err != nil {
			uc.logger.Warn("product code cache write failed", zap.String("code", code), zap.Error(err))
		}
	}
	return p, nil
}

func (uc *productUseCase) StockSummary(ctx context.Context, id int64) (*model.StockSummary, error) {
	reader := uc.tx.Reader()
	p, err := reader.Products().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("product", id)
	}
	tracked, err := reader.Batches().TrackedQuantity(ctx, id)
	if err != nil {
		return nil, err
	}
	summary := model.NewStockSummary(id, p.Quantity, tracked)
	return &summary, nil
}
