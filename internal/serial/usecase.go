package serial

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/serial/dto"
)

type UseCase interface {
	GetSerial(ctx context.Context, id int64) (*model.Serial, error)
	FindByCompositeKey(ctx context.Context, productID int64, batchUID, serialNumber string) (*model.Serial, error)
	FindByExactMatch(ctx context.Context, serialNumber string) ([]model.Serial, error)
	FindByIDs(ctx context.Context, ids []int64) ([]model.Serial, error)
	FindAllInBatch(ctx context.Context, batchID int64) ([]model.Serial, error)
	AvailableForProduct(ctx context.Context, productID int64) ([]model.Serial, error)
	TraceHistory(ctx context.Context, serialID int64) (*model.SerialHistory, error)

	// Reclassify applies the operational edges (defective, in_repair, back to available).
	Reclassify(ctx context.Context, input *dto.ReclassifyInput) (*model.Serial, error)
}
