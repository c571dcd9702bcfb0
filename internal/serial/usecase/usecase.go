package usecase

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/serial"
	"github.com/fekuna/omnipos-stock-service/internal/serial/dto"
	"github.com/fekuna/omnipos-stock-service/internal/store"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("omnipos-stock-service/serial")

type serialUseCase struct {
	tx     store.Manager
	ledger *ledger.Ledger
	logger logger.ZapLogger
}

func NewSerialUseCase(tx store.Manager, l *ledger.Ledger, log logger.ZapLogger) serial.UseCase {
	return &serialUseCase{
		tx:     tx,
		ledger: l,
		logger: log,
	}
}

func (uc *serialUseCase) GetSerial(ctx context.Context, id int64) (*model.Serial, error) {
	s, err := uc.tx.Reader().Serials().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, apperr.NotFound("serial", id)
	}
	return s, nil
}

func (uc *serialUseCase) FindByCompositeKey(ctx context.Context, productID int64, batchUID, serialNumber string) (*model.Serial, error) {
	s, err := uc.tx.Reader().Serials().FindByCompositeKey(ctx, productID, batchUID, serialNumber)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, apperr.NotFound("serial", serialNumber)
	}
	return s, nil
}

func (uc *serialUseCase) FindByExactMatch(ctx context.Context, serialNumber string) ([]model.Serial, error) {
	return uc.tx.Reader().Serials().FindByExactMatch(ctx, serialNumber)
}

func (uc *serialUseCase) FindByIDs(ctx context.Context, ids []int64) ([]model.Serial, error) {
	return uc.tx.Reader().Serials().FindByIDs(ctx, ids)
}

func (uc *serialUseCase) FindAllInBatch(ctx context.Context, batchID int64) ([]model.Serial, error) {
	items := []model.Serial{}
	err := uc.tx.Reader().Serials().ForEachInBatch(ctx, batchID, func(s model.Serial) error {
		items = append(items, s)
		return nil
	})
	return items, err
}

func (uc *serialUseCase) AvailableForProduct(ctx context.Context, productID int64) ([]model.Serial, error) {
	p, err := uc.tx.Reader().Products().FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("product", productID)
	}
	return uc.tx.Reader().Serials().ListAvailableByProduct(ctx, productID)
}

func (uc *serialUseCase) TraceHistory(ctx context.Context, serialID int64) (*model.SerialHistory, error) {
	ctx, span := tracer.Start(ctx, "TraceHistory")
	defer span.End()

	reader := uc.tx.Reader()
	s, err := reader.Serials().FindByID(ctx, serialID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, apperr.NotFound("serial", serialID)
	}
	b, err := reader.Batches().FindByID(ctx, s.BatchID)
	if err != nil {
		return nil, err
	}
	entries, err := uc.ledger.ListForSerial(ctx, serialID)
	if err != nil {
		return nil, err
	}
	return &model.SerialHistory{Serial: *s, Batch: b, Entries: entries}, nil
}

func (uc *serialUseCase) Reclassify(ctx context.Context, input *dto.ReclassifyInput) (*model.Serial, error) {
	ctx, span := tracer.Start(ctx, "Reclassify")
	defer span.End()

	switch input.To {
	case model.SerialDefective, model.SerialInRepair, model.SerialAvailable:
	default:
		return nil, apperr.Invalid("serials cannot be reclassified to %s", input.To)
	}

	var out *model.Serial
	err := uc.tx.WithinTx(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		current, err := uow.Serials().FindByID(ctx, input.SerialID)
		if err != nil {
			return err
		}
		if current == nil {
			return apperr.NotFound("serial", input.SerialID)
		}
		// Sold -> available is a customer return and goes through the stock mutator.
		if current.Status == model.SerialSold {
			return &apperr.TransitionError{SerialID: current.ID, From: current.Status.String(), To: input.To.String()}
		}

		s, err := serial.Transition(ctx, uow, input.SerialID, input.To)
		if err != nil {
			return err
		}
		p, err := uow.Products().FindByID(ctx, s.ProductID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperr.NotFound("product", s.ProductID)
		}

		batchID := s.BatchID
		serialID := s.ID
		if err := uc.ledger.Append(ctx, uow, &model.AdjustmentEntry{
			ProductID:   s.ProductID,
			Category:    model.CategoryReclassify,
			OldQuantity: p.Quantity,
			NewQuantity: p.Quantity,
			Reason:      current.Status.String() + " -> " + s.Status.String() + ": " + input.Reason,
			BatchID:     &batchID,
			SerialID:    &serialID,
		}); err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("serial reclassified",
		zap.Int64("serial_id", out.ID),
		zap.Stringer("status", out.Status),
	)
	return out, nil
}
