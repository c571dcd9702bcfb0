package product

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/product/dto"
)

type UseCase interface {
	CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	// ResolveCode finds an active or inactive product by barcode or product code.
	ResolveCode(ctx context.Context, code string) (*model.Product, error)
	StockSummary(ctx context.Context, id int64) (*model.StockSummary, error)
}

// CodeCache remembers which product a printed code belongs to. Codes never move between
// products, so entries are not invalidated on stock changes.
type CodeCache interface {
	Get(ctx context.Context, code string) (int64, bool, error)
	Set(ctx context.Context, code string, productID int64) error
}
