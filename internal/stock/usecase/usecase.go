package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/serial"
	"github.com/fekuna/omnipos-stock-service/internal/stock"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	"github.com/fekuna/omnipos-stock-service/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("omnipos-stock-service/stock")

type stockUseCase struct {
	tx     store.Manager
	ledger *ledger.Ledger
	idem   stock.IdempotencyCache
	logger logger.ZapLogger
}

// NewStockUseCase wires the stock mutator. idem may be nil, in which case replays are
// detected through the ledger alone.
func NewStockUseCase(tx store.Manager, l *ledger.Ledger, idem stock.IdempotencyCache, log logger.ZapLogger) stock.UseCase {
	return &stockUseCase{
		tx:     tx,
		ledger: l,
		idem:   idem,
		logger: log,
	}
}

func (uc *stockUseCase) AdjustManual(ctx context.Context, input *dto.AdjustInput) (*dto.AdjustResult, error) {
	ctx, span := tracer.Start(ctx, "AdjustManual")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("product.id", input.ProductID),
		attribute.Int64("adjust.delta", input.Delta),
	)

	category, err := validateAdjust(input)
	if err != nil {
		return nil, err
	}

	key := strings.TrimSpace(input.IdempotencyKey)
	if key != "" {
		if prior, ok := uc.cachedReplay(ctx, key); ok {
			return replayOf(prior, input)
		}
	}

	var (
		entry    *model.AdjustmentEntry
		replayed bool
	)
	err = uc.tx.WithinTx(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		if key != "" {
			prior, err := uow.Ledger().FindByIdempotencyKey(ctx, key)
			if err != nil {
				return err
			}
			if prior != nil {
				entry, replayed = prior, true
				return nil
			}
		}

		e, err := uc.adjust(ctx, uow, input, category)
		if err != nil {
			return err
		}
		if key != "" {
			e.IdempotencyKey = &key
		}
		if err := uc.ledger.Append(ctx, uow, e); err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		// Another request carrying the same key committed first.
		if key != "" && lostRace(err) {
			prior, ferr := uc.tx.Reader().Ledger().FindByIdempotencyKey(ctx, key)
			if ferr == nil && prior != nil {
				return replayOf(prior, input)
			}
		}
		return nil, err
	}
	if replayed {
		return replayOf(entry, input)
	}

	if key != "" && uc.idem != nil {
		if err := uc.idem.Set(ctx, key, entry.ID); err != nil {
			uc.logger.Warn("idempotency cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	uc.logger.Info("stock adjusted",
		zap.Int64("product_id", entry.ProductID),
		zap.Int64("delta", entry.Delta),
		zap.Int64("new_quantity", entry.NewQuantity),
		zap.String("category", string(entry.Category)),
		zap.String("entry_id", entry.ID),
	)
	return &dto.AdjustResult{Entry: *entry}, nil
}

// lostRace reports errors a concurrent commit of the same key can cause: the unique
// index firing, or a serialization failure under SERIALIZABLE.
func lostRace(err error) bool {
	return errors.Is(err, apperr.ErrConflict) || errors.Is(err, apperr.ErrTransactionFailed)
}

func validateAdjust(input *dto.AdjustInput) (model.AdjustmentCategory, error) {
	if input.ProductID <= 0 {
		return "", apperr.Invalid("product id is required")
	}
	if input.Delta == 0 {
		return "", apperr.Invalid("adjustment delta must not be zero")
	}
	if input.SerialID != nil && input.Delta > 0 {
		return "", apperr.Invalid("a serial can only be adjusted out; receive new units through a batch")
	}
	category := input.Category
	if category == "" {
		category = model.CategoryOther
	}
	if !category.Manual() {
		return "", apperr.Invalid("category %q is not a manual adjustment category", category)
	}
	return category, nil
}

// adjust applies the product, batch and serial changes of one manual adjustment and
// returns the ledger entry describing them.
func (uc *stockUseCase) adjust(ctx context.Context, uow store.UnitOfWork, input *dto.AdjustInput, category model.AdjustmentCategory) (*model.AdjustmentEntry, error) {
	p, err := uow.Products().FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("product", input.ProductID)
	}

	entry := &model.AdjustmentEntry{
		ProductID: p.ID,
		Category:  category,
		Delta:     input.Delta,
		Reason:    input.Reason,
	}

	switch {
	case input.SerialID != nil:
		s, err := serial.Transition(ctx, uow, *input.SerialID, model.SerialAdjustedOut)
		if err != nil {
			return nil, err
		}
		if s.ProductID != p.ID {
			return nil, apperr.Invalid("serial %d does not belong to product %d", s.ID, p.ID)
		}
		if input.BatchID != nil && *input.BatchID != s.BatchID {
			return nil, apperr.Invalid("serial %d does not belong to batch %d", s.ID, *input.BatchID)
		}
		// One serial is one unit, so its batch always drops by one.
		if input.Delta != -1 {
			uc.logger.Warn("serial adjustment delta is not -1; batch decremented by one",
				zap.Int64("serial_id", s.ID),
				zap.Int64("delta", input.Delta),
			)
		}
		batchQty, err := uow.Batches().AddQuantity(ctx, s.BatchID, -1)
		if err != nil {
			return nil, err
		}
		uc.warnNegativeBatch(s.BatchID, batchQty)
		entry.BatchID = &s.BatchID
		entry.SerialID = &s.ID

	case input.BatchID != nil:
		b, err := uow.Batches().FindByID(ctx, *input.BatchID)
		if err != nil {
			return nil, err
		}
		if b == nil {
			return nil, apperr.NotFound("batch", *input.BatchID)
		}
		if b.ProductID != p.ID {
			return nil, apperr.Invalid("batch %d does not belong to product %d", b.ID, p.ID)
		}
		batchQty, err := uow.Batches().AddQuantity(ctx, b.ID, input.Delta)
		if err != nil {
			return nil, err
		}
		uc.warnNegativeBatch(b.ID, batchQty)
		entry.BatchID = &b.ID
	}

	oldQty, newQty, err := uow.Products().AddQuantity(ctx, p.ID, input.Delta)
	if err != nil {
		return nil, err
	}
	uc.warnNegativeProduct(p.ID, newQty)
	entry.OldQuantity = oldQty
	entry.NewQuantity = newQty
	return entry, nil
}

func (uc *stockUseCase) cachedReplay(ctx context.Context, key string) (*model.AdjustmentEntry, bool) {
	if uc.idem == nil {
		return nil, false
	}
	id, ok, err := uc.idem.Get(ctx, key)
	if err != nil {
		uc.logger.Warn("idempotency cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	e, err := uc.tx.Reader().Ledger().FindByID(ctx, id)
	if err != nil || e == nil {
		return nil, false
	}
	return e, true
}

// replayOf returns the stored entry when the replayed request describes the same
// adjustment and a conflict when the key was reused for a different one.
func replayOf(prior *model.AdjustmentEntry, input *dto.AdjustInput) (*dto.AdjustResult, error) {
	if prior.ProductID != input.ProductID || prior.Delta != input.Delta {
		return nil, apperr.Conflict("idempotency key %q was used for a different adjustment", input.IdempotencyKey)
	}
	return &dto.AdjustResult{Entry: *prior, Replayed: true}, nil
}

func (uc *stockUseCase) RecordSale(ctx context.Context, doc *dto.Document) ([]model.AdjustmentEntry, error) {
	ctx, span := tracer.Start(ctx, "RecordSale")
	defer span.End()
	return uc.recordDocument(ctx, doc, model.CategorySale, -1, stock.DeductForSaleItem)
}

func (uc *stockUseCase) RecordReturn(ctx context.Context, doc *dto.Document) ([]model.AdjustmentEntry, error) {
	ctx, span := tracer.Start(ctx, "RecordReturn")
	defer span.End()
	return uc.recordDocument(ctx, doc, model.CategoryReturn, 1, stock.RestoreForReturnItem)
}

type linePrimitive func(ctx context.Context, uow store.UnitOfWork, line dto.SaleLine) error

func (uc *stockUseCase) recordDocument(ctx context.Context, doc *dto.Document, category model.AdjustmentCategory, sign int64, apply linePrimitive) ([]model.AdjustmentEntry, error) {
	if len(doc.Lines) == 0 {
		return nil, apperr.Invalid("document has no lines")
	}
	for i, line := range doc.Lines {
		if line.ProductID <= 0 {
			return nil, apperr.Invalid("line %d: product id is required", i+1)
		}
		if line.Units() <= 0 {
			return nil, apperr.Invalid("line %d: quantity must be positive", i+1)
		}
	}

	var refType, refID *string
	if doc.ReferenceType != "" {
		refType = &doc.ReferenceType
	}
	if doc.ReferenceID != "" {
		refID = &doc.ReferenceID
	}

	key := strings.TrimSpace(doc.IdempotencyKey)
	entries := make([]model.AdjustmentEntry, 0, len(doc.Lines))
	replayed := false
	err := uc.tx.WithinTx(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		entries = entries[:0]
		if key != "" {
			prior, err := storedDocument(ctx, uow, category, key, len(doc.Lines))
			if err != nil {
				return err
			}
			if len(prior) > 0 {
				entries, replayed = prior, true
				return nil
			}
		}
		for i, line := range doc.Lines {
			batchID, err := resolveLine(ctx, uow, line)
			if err != nil {
				return err
			}
			if err := apply(ctx, uow, line); err != nil {
				return err
			}
			delta := sign * line.Units()
			oldQty, newQty, err := uow.Products().AddQuantity(ctx, line.ProductID, delta)
			if err != nil {
				return err
			}
			uc.warnNegativeProduct(line.ProductID, newQty)

			e := &model.AdjustmentEntry{
				ProductID:     line.ProductID,
				Category:      category,
				OldQuantity:   oldQty,
				NewQuantity:   newQty,
				Delta:         delta,
				Reason:        doc.Reason,
				BatchID:       batchID,
				SerialID:      line.SerialID,
				ReferenceType: refType,
				ReferenceID:   refID,
			}
			if key != "" {
				lk := lineKey(category, key, i)
				e.IdempotencyKey = &lk
			}
			if err := uc.ledger.Append(ctx, uow, e); err != nil {
				return err
			}
			entries = append(entries, *e)
		}
		return nil
	})
	if err != nil && key != "" && lostRace(err) {
		if prior, ferr := storedDocument(ctx, uc.tx.Reader(), category, key, len(doc.Lines)); ferr == nil && len(prior) > 0 {
			entries, replayed, err = prior, true, nil
		}
	}
	if err != nil {
		return nil, err
	}
	if replayed {
		uc.logger.Info("stock document already recorded",
			zap.String("category", string(category)),
			zap.String("reference_id", doc.ReferenceID),
			zap.String("key", key),
		)
		return entries, nil
	}

	uc.logger.Info("stock document recorded",
		zap.String("category", string(category)),
		zap.String("reference_id", doc.ReferenceID),
		zap.Int("lines", len(entries)),
	)
	return entries, nil
}

// lineKey derives the ledger idempotency key of one document line. The category
// prefix keeps a sale and a return with the same document key apart.
func lineKey(category model.AdjustmentCategory, key string, line int) string {
	return fmt.Sprintf("%s:%s#%d", category, key, line+1)
}

// storedDocument returns the entries an earlier commit of the keyed document wrote,
// or nil when the document has not been recorded.
func storedDocument(ctx context.Context, uow store.UnitOfWork, category model.AdjustmentCategory, key string, lines int) ([]model.AdjustmentEntry, error) {
	var entries []model.AdjustmentEntry
	for i := range lines {
		e, err := uow.Ledger().FindByIdempotencyKey(ctx, lineKey(category, key, i))
		if err != nil {
			return nil, err
		}
		if e == nil {
			if i == 0 {
				return nil, nil
			}
			continue
		}
		entries = append(entries, *e)
	}
	return entries, nil
}

// resolveLine checks that the line's product exists and owns the referenced batch or
// serial. It returns the batch the line touches.
func resolveLine(ctx context.Context, uow store.UnitOfWork, line dto.SaleLine) (*int64, error) {
	p, err := uow.Products().FindByID(ctx, line.ProductID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("product", line.ProductID)
	}

	if line.SerialID != nil {
		s, err := uow.Serials().FindByID(ctx, *line.SerialID)
		if err != nil {
			return nil, err
		}
		if s == nil {
			return nil, apperr.NotFound("serial", *line.SerialID)
		}
		if s.ProductID != p.ID {
			return nil, apperr.Invalid("serial %d does not belong to product %d", s.ID, p.ID)
		}
		return &s.BatchID, nil
	}
	if line.BatchID != nil {
		b, err := uow.Batches().FindByID(ctx, *line.BatchID)
		if err != nil {
			return nil, err
		}
		if b == nil {
			return nil, apperr.NotFound("batch", *line.BatchID)
		}
		if b.ProductID != p.ID {
			return nil, apperr.Invalid("batch %d does not belong to product %d", b.ID, p.ID)
		}
		return &b.ID, nil
	}
	return nil, nil
}

func (uc *stockUseCase) History(ctx context.Context, productID int64, page, pageSize int) ([]model.AdjustmentEntry, error) {
	p, err := uc.tx.Reader().Products().FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("product", productID)
	}
	return uc.ledger.ListForProduct(ctx, productID, page, pageSize)
}

func (uc *stockUseCase) warnNegativeProduct(productID, qty int64) {
	if qty < 0 {
		uc.logger.Warn("product quantity is negative", zap.Int64("product_id", productID), zap.Int64("quantity", qty))
	}
}

func (uc *stockUseCase) warnNegativeBatch(batchID, qty int64) {
	if qty < 0 {
		uc.logger.Warn("batch quantity is negative", zap.Int64("batch_id", batchID), zap.Int64("quantity", qty))
	}
}
