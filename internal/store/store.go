// Package store declares the persistence ports of the stock engine.
//
// Every write goes through Manager.WithinTx, which hands the callback an explicit
// UnitOfWork bound to one serializable transaction. Repositories obtained from that
// value are only valid inside the callback. Manager.Reader returns repositories bound
// to the pool for lock-free reads.
//
// Single-row finders return (nil, nil) when nothing matches.
package store

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id int64) (*model.Product, error)
	// FindByCode matches the barcode first, then the product code.
	FindByCode(ctx context.Context, code string) (*model.Product, error)
	// AddQuantity applies delta to the book quantity and returns the values before and after.
	AddQuantity(ctx context.Context, id, delta int64) (oldQty, newQty int64, err error)
}

type BatchRepository interface {
	// NextSequence allocates the next per-product batch sequence. Sequences are never reused.
	NextSequence(ctx context.Context, productID int64) (int64, error)
	Create(ctx context.Context, b *model.Batch) error
	FindByID(ctx context.Context, id int64) (*model.Batch, error)
	FindByUID(ctx context.Context, uid string) (*model.Batch, error)
	ListByProduct(ctx context.Context, productID int64, includeInactive bool) ([]model.Batch, error)
	// AddQuantity applies delta and returns the new batch quantity.
	AddQuantity(ctx context.Context, id, delta int64) (int64, error)
	Deactivate(ctx context.Context, id int64) error
	// TrackedQuantity sums the quantities of active batches of a product.
	TrackedQuantity(ctx context.Context, productID int64) (int64, error)
}

type SerialRepository interface {
	// BulkCreate inserts serials and fills in their ids.
	BulkCreate(ctx context.Context, serials []model.Serial) error
	FindByID(ctx context.Context, id int64) (*model.Serial, error)
	FindByIDs(ctx context.Context, ids []int64) ([]model.Serial, error)
	FindByCompositeKey(ctx context.Context, productID int64, batchUID, serialNumber string) (*model.Serial, error)
	// FindByExactMatch returns every serial carrying the number; it is only unique per batch.
	FindByExactMatch(ctx context.Context, serialNumber string) ([]model.Serial, error)
	// ForEachInBatch streams serials of a batch in id order until fn returns an error.
	ForEachInBatch(ctx context.Context, batchID int64, fn func(model.Serial) error) error
	ListAvailableByProduct(ctx context.Context, productID int64) ([]model.Serial, error)
	CountByStatus(ctx context.Context, batchID int64) (map[model.SerialStatus]int, error)
	UpdateStatus(ctx context.Context, id int64, status model.SerialStatus) error
}

// LedgerRepository is append-only.
type LedgerRepository interface {
	Append(ctx context.Context, e *model.AdjustmentEntry) error
	FindByID(ctx context.Context, id string) (*model.AdjustmentEntry, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*model.AdjustmentEntry, error)
	ListByProduct(ctx context.Context, productID int64, limit, offset int) ([]model.AdjustmentEntry, error)
	ListBySerial(ctx context.Context, serialID int64) ([]model.AdjustmentEntry, error)
}

type UnitOfWork interface {
	Products() ProductRepository
	Batches() BatchRepository
	Serials() SerialRepository
	Ledger() LedgerRepository
}

type Manager interface {
	// WithinTx runs fn in one serializable transaction. Any error from fn, or from
	// commit, rolls back every write fn made.
	WithinTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
	Reader() UnitOfWork
}
