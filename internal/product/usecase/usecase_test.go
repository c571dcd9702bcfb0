package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/product"
	"github.com/fekuna/omnipos-stock-service/internal/product/dto"
	"github.com/fekuna/omnipos-stock-service/internal/store/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	ids    map[string]int64
	gets   int
	getErr error
}

func (c *mapCache) Get(_ context.Context, code string) (int64, bool, error) {
	c.gets++
	if c.getErr != nil {
		return 0, false, c.getErr
	}
	id, ok := c.ids[code]
	return id, ok, nil
}

func (c *mapCache) Set(_ context.Context, code string, id int64) error {
	c.ids[code] = id
	return nil
}

func newUseCase(cache *mapCache) (*productUseCase, *memory.Store) {
	st := memory.New()
	var c product.CodeCache
	if cache != nil {
		c = cache
	}
	uc := NewProductUseCase(st, ledger.New(st.Reader()), c, logger.NewNop()).(*productUseCase)
	return uc, st
}

func TestCreateProductWithOpeningStock(t *testing.T) {
	uc, st := newUseCase(nil)
	ctx := context.Background()

	p, err := uc.CreateProduct(ctx, &dto.CreateProductInput{
		Code:            "SKU-1",
		Barcode:         "8991234567890",
		Name:            "Phone",
		Price:           decimal.RequireFromString("199.90"),
		TrackingType:    model.TrackingSerial,
		InitialQuantity: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4), p.Quantity)

	entries, err := st.Reader().Ledger().ListByProduct(ctx, p.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(4), entries[0].Delta)

	summary, err := uc.StockSummary(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), summary.Untracked)
	assert.Equal(t, int64(0), summary.Tracked)
}

func TestCreateProductValidation(t *testing.T) {
	uc, _ := newUseCase(nil)

	tests := []struct {
		name  string
		input dto.CreateProductInput
	}{
		{"missing code", dto.CreateProductInput{Name: "x"}},
		{"missing name", dto.CreateProductInput{Code: "x"}},
		{"bad tracking", dto.CreateProductInput{Code: "x", Name: "x", TrackingType: "lot"}},
		{"negative stock", dto.CreateProductInput{Code: "x", Name: "x", InitialQuantity: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.CreateProduct(context.Background(), &tt.input)
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		})
	}
}

func TestResolveCodeUsesCache(t *testing.T) {
	cache := &mapCache{ids: map[string]int64{}}
	uc, _ := newUseCase(cache)
	ctx := context.Background()

	p, err := uc.CreateProduct(ctx, &dto.CreateProductInput{Code: "SKU-9", Barcode: "BC-9", Name: "Cable"})
	require.NoError(t, err)

	got, err := uc.ResolveCode(ctx, "BC-9")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, p.ID, cache.ids["BC-9"])

	byCode, err := uc.ResolveCode(ctx, "SKU-9")
	require.NoError(t, err)
	assert.Equal(t, p.ID, byCode.ID)

	_, err = uc.ResolveCode(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestResolveCodeSurvivesCacheErrors(t *testing.T) {
	cache := &mapCache{ids: map[string]int64{}, getErr: errors.New("redis down")}
	uc, _ := newUseCase(cache)
	ctx := context.Background()

	p, err := uc.CreateProduct(ctx, &dto.CreateProductInput{Code: "SKU-2", Name: "Case"})
	require.NoError(t, err)

	got, err := uc.ResolveCode(ctx, "SKU-2")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, 1, cache.gets)
}

func TestGetProductNotFound(t *testing.T) {
	uc, _ := newUseCase(nil)
	_, err := uc.GetProduct(context.Background(), 99)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = uc.StockSummary(context.Background(), 99)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
