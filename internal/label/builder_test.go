package label

import (
	"context"
	"testing"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/serial"
	"github.com/fekuna/omnipos-stock-service/internal/store"
	"github.com/fekuna/omnipos-stock-service/internal/store/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	st      *memory.Store
	product *model.Product
	batch   *model.Batch
	legacy  *model.Batch
	serials []model.Serial
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{st: memory.New()}
	barcode := "8990001"
	uid := "BAT-1-1"
	require.NoError(t, f.st.WithinTx(context.Background(), func(ctx context.Context, uow store.UnitOfWork) error {
		f.product = &model.Product{Code: "SKU", Barcode: &barcode, Name: "Phone", Price: decimal.RequireFromString("100"), TrackingType: model.TrackingSerial}
		if err := uow.Products().Create(ctx, f.product); err != nil {
			return err
		}
		f.batch = &model.Batch{
			ProductID:   f.product.ID,
			BatchUID:    &uid,
			BatchNumber: "LOT-1",
			Sequence:    1,
			MRP:         decimal.NewNullDecimal(decimal.RequireFromString("120")),
			Quantity:    3,
			IsActive:    true,
		}
		if err := uow.Batches().Create(ctx, f.batch); err != nil {
			return err
		}
		f.legacy = &model.Batch{ProductID: f.product.ID, Quantity: 1, IsActive: true}
		if err := uow.Batches().Create(ctx, f.legacy); err != nil {
			return err
		}
		var err error
		if f.serials, err = serial.Register(ctx, uow, f.batch, []string{"A", "B", "C"}); err != nil {
			return err
		}
		_, err = serial.Register(ctx, uow, f.legacy, []string{"Z"})
		return err
	}))
	return f
}

func collect(t *testing.T, seq func(func(model.Label, error) bool)) []model.Label {
	t.Helper()
	var out []model.Label
	for l, err := range seq {
		require.NoError(t, err)
		out = append(out, l)
	}
	return out
}

func TestBuildProductLabel(t *testing.T) {
	f := newFixture(t)
	seq, err := NewBuilder(f.st.Reader()).Build(context.Background(), Request{Scope: model.ScopeProduct, ProductID: f.product.ID, Copies: 0})
	require.NoError(t, err)

	labels := collect(t, seq)
	require.Len(t, labels, 1)
	assert.Equal(t, "8990001", labels[0].Barcode)
	assert.Equal(t, 1, labels[0].Copies)
	assert.True(t, decimal.RequireFromString("100").Equal(labels[0].Price))
}

func TestBuildBatchLabel(t *testing.T) {
	f := newFixture(t)
	b := NewBuilder(f.st.Reader())
	ctx := context.Background()

	seq, err := b.Build(ctx, Request{Scope: model.ScopeBatch, ProductID: f.product.ID, BatchID: &f.batch.ID, Copies: 3})
	require.NoError(t, err)
	labels := collect(t, seq)
	require.Len(t, labels, 1)
	assert.Equal(t, "BAT-1-1", labels[0].Barcode)
	assert.Equal(t, "Phone LOT-1", labels[0].Label)
	assert.Equal(t, 3, labels[0].Copies)
	assert.True(t, decimal.RequireFromString("120").Equal(labels[0].Price))

	seq, err = b.Build(ctx, Request{Scope: model.ScopeBatch, ProductID: f.product.ID, BatchID: &f.legacy.ID})
	require.NoError(t, err)
	labels = collect(t, seq)
	assert.Equal(t, model.LegacyBatchCode(f.legacy.ID), labels[0].Barcode)
	assert.True(t, decimal.RequireFromString("100").Equal(labels[0].Price))
}

func TestBuildSerialLabels(t *testing.T) {
	f := newFixture(t)
	b := NewBuilder(f.st.Reader())
	ctx := context.Background()

	seq, err := b.Build(ctx, Request{Scope: model.ScopeSerial, ProductID: f.product.ID, BatchID: &f.batch.ID, AllSerials: true})
	require.NoError(t, err)
	labels := collect(t, seq)
	require.Len(t, labels, 3)
	assert.Equal(t, "1-BAT-1-1-A", labels[0].Barcode)
	assert.Equal(t, "1-BAT-1-1-C", labels[2].Barcode)

	seq, err = b.Build(ctx, Request{Scope: model.ScopeSerial, ProductID: f.product.ID, SerialIDs: []int64{f.serials[1].ID, 404, 4}})
	require.NoError(t, err)
	labels = collect(t, seq)
	require.Len(t, labels, 2)
	assert.Equal(t, "1-BAT-1-1-B", labels[0].Barcode)
	assert.Equal(t, "1-"+model.LegacyBatchCode(f.legacy.ID)+"-Z", labels[1].Barcode)
}

func TestBuildStopsEarly(t *testing.T) {
	f := newFixture(t)
	seq, err := NewBuilder(f.st.Reader()).Build(context.Background(), Request{Scope: model.ScopeSerial, ProductID: f.product.ID, BatchID: &f.batch.ID, AllSerials: true})
	require.NoError(t, err)

	n := 0
	for range seq {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestBuildErrors(t *testing.T) {
	f := newFixture(t)
	missing := int64(404)

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"missing product", Request{Scope: model.ScopeProduct, ProductID: 404}, apperr.ErrNotFound},
		{"missing batch", Request{Scope: model.ScopeBatch, ProductID: f.product.ID, BatchID: &missing}, apperr.ErrNotFound},
		{"batch scope without batch", Request{Scope: model.ScopeBatch, ProductID: f.product.ID}, apperr.ErrInvalidInput},
		{"all serials without batch", Request{Scope: model.ScopeSerial, ProductID: f.product.ID, AllSerials: true}, apperr.ErrInvalidInput},
		{"serial scope without ids", Request{Scope: model.ScopeSerial, ProductID: f.product.ID}, apperr.ErrInvalidInput},
		{"unknown scope", Request{Scope: "pallet", ProductID: f.product.ID}, apperr.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := NewBuilder(f.st.Reader()).Build(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, seq)
		})
	}
}
