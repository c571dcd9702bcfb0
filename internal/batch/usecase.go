package batch

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/batch/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type UseCase interface {
	// CreateBatch registers a batch and its serials without touching book stock.
	CreateBatch(ctx context.Context, input *dto.CreateBatchInput) (*dto.CreateBatchResult, error)
	// ReceivePurchase registers a batch and adds its quantity to book stock.
	ReceivePurchase(ctx context.Context, input *dto.CreateBatchInput) (*dto.CreateBatchResult, error)
	// AssignUntrackedStock moves existing untracked book stock into a new batch.
	AssignUntrackedStock(ctx context.Context, input *dto.CreateBatchInput) (*dto.CreateBatchResult, error)
	DeactivateBatch(ctx context.Context, id int64) error

	GetBatch(ctx context.Context, id int64) (*model.Batch, error)
	BatchesForProduct(ctx context.Context, productID int64, includeInactive bool) ([]model.Batch, error)
	FindBatchDetails(ctx context.Context, id int64) (*model.BatchDetails, error)
}
