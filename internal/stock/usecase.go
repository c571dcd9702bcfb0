package stock

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
)

type UseCase interface {
	// AdjustManual applies a manual correction and records exactly one ledger entry.
	AdjustManual(ctx context.Context, input *dto.AdjustInput) (*dto.AdjustResult, error)
	// RecordSale deducts every line of a sale document in one transaction.
	RecordSale(ctx context.Context, doc *dto.Document) ([]model.AdjustmentEntry, error)
	// RecordReturn restores every line of a return document in one transaction.
	RecordReturn(ctx context.Context, doc *dto.Document) ([]model.AdjustmentEntry, error)
	History(ctx context.Context, productID int64, page, pageSize int) ([]model.AdjustmentEntry, error)
}

// IdempotencyCache maps adjustment idempotency keys to ledger entry ids. The ledger's
// unique key column stays authoritative; the cache only short-circuits replays.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, entryID string) error
}
