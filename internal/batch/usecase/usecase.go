package usecase

import (
	"context"
	"strconv"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/batch"
	"github.com/fekuna/omnipos-stock-service/internal/batch/dto"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("omnipos-stock-service/batch")

const referencePurchase = "purchase"

type batchUseCase struct {
	tx     store.Manager
	ledger *ledger.Ledger
	logger logger.ZapLogger
}

func NewBatchUseCase(tx store.Manager, l *ledger.Ledger, log logger.ZapLogger) batch.UseCase {
	return &batchUseCase{
		tx:     tx,
		ledger: l,
		logger: log,
	}
}

func (uc *batchUseCase) CreateBatch(ctx context.Context, input *dto.CreateBatchInput) (*dto.CreateBatchResult, error) {
	ctx, span := tracer.Start(ctx, "CreateBatch")
	defer span.End()

	var res *dto.CreateBatchResult
	err := uc.tx.WithinTx(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		_, created, err := batch.Create(ctx, uow, input)
		res = created
		return err
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("batch.uid", res.BatchUID))
	uc.logCreated("batch created", input.ProductID, res)
	return res, nil
}

func (uc *batchUseCase) ReceivePurchase(ctx context.Context, input *dto.CreateBatchInput) (*dto.CreateBatchResult, error) {
	ctx, span := tracer.Start(ctx, "ReceivePurchase")
	defer span.End()

	var res *dto.CreateBatchResult
	err := uc.tx.WithinTx(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		_, created, err := batch.Create(ctx, uow, input)
		if err != nil {
			return err
		}
		oldQty, newQty, err := uow.Products().AddQuantity(ctx, input.ProductID, created.Quantity)
		if err != nil {
			return err
		}

		entry := &model.AdjustmentEntry{
			ProductID:   input.ProductID,
			Category:    model.CategoryReceipt,
			OldQuantity: oldQty,
			NewQuantity: newQty,
			Delta:       created.Quantity,
			Reason:      input.Reason,
			BatchID:     &created.BatchID,
		}
		if input.PurchaseID != nil {
			ref := referencePurchase
			refID := strconv.FormatInt(*input.PurchaseID, 10)
			entry.ReferenceType = &ref
			entry.ReferenceID = &refID
		}
		if err := uc.ledger.Append(ctx, uow, entry); err != nil {
			return err
		}
		res = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logCreated("purchase received", input.ProductID, res)
	return res, nil
}

func (uc *batchUseCase) AssignUntrackedStock(ctx context.Context, input *dto.CreateBatchInput) (*dto.CreateBatchResult, error) {
	ctx, span := tracer.Start(ctx, "AssignUntrackedStock")
	defer span.End()

	var res *dto.CreateBatchResult
	err := uc.tx.WithinTx(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		p, err := uow.Products().FindByID(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperr.NotFound("product", input.ProductID)
		}
		tracked, err := uow.Batches().TrackedQuantity(ctx, p.ID)
		if err != nil {
			return err
		}
		untracked := p.Quantity - tracked

		_, created, err := batch.Create(ctx, uow, input)
		if err != nil {
			return err
		}
		if created.Quantity <= 0 {
			return apperr.Invalid("nothing to assign")
		}
		if created.Quantity > untracked {
			return apperr.Invalid("only %d untracked units available for product %d", untracked, p.ID)
		}

		if err := uc.ledger.Append(ctx, uow, &model.AdjustmentEntry{
			ProductID:   p.ID,
			Category:    model.CategoryAssign,
			OldQuantity: p.Quantity,
			NewQuantity: p.Quantity,
			Reason:      input.Reason,
			BatchID:     &created.BatchID,
		}); err != nil {
			return err
		}
		res = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logCreated("untracked stock assigned", input.ProductID, res)
	return res, nil
}

func (uc *batchUseCase) DeactivateBatch(ctx context.Context, id int64) error {
	err := uc.tx.WithinTx(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		b, err := uow.Batches().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if b == nil {
			return apperr.NotFound("batch", id)
		}
		if !b.IsActive {
			return nil
		}
		return uow.Batches().Deactivate(ctx, id)
	})
	if err != nil {
		return err
	}
	uc.logger.Info("batch deactivated", zap.Int64("batch_id", id))
	return nil
}

func (uc *batchUseCase) GetBatch(ctx context.Context, id int64) (*model.Batch, error) {
	b, err := uc.tx.Reader().Batches().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperr.NotFound("batch", id)
	}
	return b, nil
}

func (uc *batchUseCase) BatchesForProduct(ctx context.Context, productID int64, includeInactive bool) ([]model.Batch, error) {
	p, err := uc.tx.Reader().Products().FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("product", productID)
	}
	return uc.tx.Reader().Batches().ListByProduct(ctx, productID, includeInactive)
}

func (uc *batchUseCase) FindBatchDetails(ctx context.Context, id int64) (*model.BatchDetails, error) {
	b, err := uc.GetBatch(ctx, id)
	if err != nil {
		return nil, err
	}
	counts, err := uc.tx.Reader().Serials().CountByStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.BatchDetails{Batch: *b, SerialCounts: counts}, nil
}

func (uc *batchUseCase) logCreated(msg string, productID int64, res *dto.CreateBatchResult) {
	uc.logger.Info(msg,
		zap.Int64("product_id", productID),
		zap.Int64("batch_id", res.BatchID),
		zap.String("batch_uid", res.BatchUID),
		zap.Int64("quantity", res.Quantity),
		zap.Int("serials", len(res.Serials)),
	)
}
