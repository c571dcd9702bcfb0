// Package ledger writes and reads the append-only adjustment log. Entries are only ever
// written through a unit of work, so they commit or roll back with the stock change they record.
package ledger

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/store"
	"github.com/google/uuid"
)

const defaultPageSize = 50

type Ledger struct {
	reader store.UnitOfWork
	now    func() time.Time
}

func New(reader store.UnitOfWork) *Ledger {
	return &Ledger{reader: reader, now: time.Now}
}

// Append stamps id, time and actor, checks the arithmetic and inserts the entry.
func (l *Ledger) Append(ctx context.Context, uow store.UnitOfWork, e *model.AdjustmentEntry) error {
	if e.ProductID <= 0 {
		return apperr.Invalid("ledger entry without product")
	}
	if e.Category == "" {
		return apperr.Invalid("ledger entry without category")
	}
	if e.NewQuantity-e.OldQuantity != e.Delta {
		return apperr.Invalid("ledger delta %d does not match %d -> %d", e.Delta, e.OldQuantity, e.NewQuantity)
	}

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = l.now().UTC()
	}
	if e.Actor == "" {
		e.Actor = auth.GetActor(ctx)
	}

	return uow.Ledger().Append(ctx, e)
}

func (l *Ledger) Get(ctx context.Context, id string) (*model.AdjustmentEntry, error) {
	e, err := l.reader.Ledger().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, apperr.NotFound("ledger entry", id)
	}
	return e, nil
}

// ListForProduct pages entries newest first. Page numbers start at 1.
func (l *Ledger) ListForProduct(ctx context.Context, productID int64, page, pageSize int) ([]model.AdjustmentEntry, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if page < 1 {
		page = 1
	}
	return l.reader.Ledger().ListByProduct(ctx, productID, pageSize, (page-1)*pageSize)
}

func (l *Ledger) ListForSerial(ctx context.Context, serialID int64) ([]model.AdjustmentEntry, error) {
	return l.reader.Ledger().ListBySerial(ctx, serialID)
}
