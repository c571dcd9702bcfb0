package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProduct(t *testing.T, s *Store, qty int64) *model.Product {
	t.Helper()
	p := &model.Product{Code: "P-1", Name: "Widget", TrackingType: model.TrackingSerial, Quantity: qty, IsActive: true}
	require.NoError(t, s.WithinTx(context.Background(), func(ctx context.Context, uow store.UnitOfWork) error {
		return uow.Products().Create(ctx, p)
	}))
	return p
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	s := New()
	p := seedProduct(t, s, 10)
	boom := errors.New("boom")

	err := s.WithinTx(context.Background(), func(ctx context.Context, uow store.UnitOfWork) error {
		if _, _, err := uow.Products().AddQuantity(ctx, p.ID, -4); err != nil {
			return err
		}
		uid := "BAT-1-1"
		if err := uow.Batches().Create(ctx, &model.Batch{ProductID: p.ID, BatchUID: &uid, IsActive: true}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Reader().Products().FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Quantity)

	batches, err := s.Reader().Batches().ListByProduct(context.Background(), p.ID, true)
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestReaderIsReadOnly(t *testing.T) {
	s := New()
	p := seedProduct(t, s, 1)

	_, _, err := s.Reader().Products().AddQuantity(context.Background(), p.ID, 1)
	assert.Error(t, err)
}

func TestReaderDoesNotSeeUncommittedWrites(t *testing.T) {
	s := New()
	p := seedProduct(t, s, 5)

	err := s.WithinTx(context.Background(), func(ctx context.Context, uow store.UnitOfWork) error {
		if _, _, err := uow.Products().AddQuantity(ctx, p.ID, 3); err != nil {
			return err
		}
		during, err := s.Reader().Products().FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(5), during.Quantity)
		return nil
	})
	require.NoError(t, err)

	after, err := s.Reader().Products().FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(8), after.Quantity)
}

func TestSequenceSurvivesAcrossTransactions(t *testing.T) {
	s := New()
	p := seedProduct(t, s, 0)

	var got []int64
	for i := 0; i < 3; i++ {
		require.NoError(t, s.WithinTx(context.Background(), func(ctx context.Context, uow store.UnitOfWork) error {
			seq, err := uow.Batches().NextSequence(ctx, p.ID)
			got = append(got, seq)
			return err
		}))
	}
	assert.Equal(t, []int64{1, 2, 3}, got)
}

func TestUniqueConstraints(t *testing.T) {
	s := New()
	p := seedProduct(t, s, 0)
	ctx := context.Background()

	err := s.WithinTx(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		uid := "BAT-1-1"
		b := &model.Batch{ProductID: p.ID, BatchUID: &uid, IsActive: true}
		require.NoError(t, uow.Batches().Create(ctx, b))

		dup := uid
		assert.ErrorIs(t, uow.Batches().Create(ctx, &model.Batch{ProductID: p.ID, BatchUID: &dup}), apperr.ErrConflict)

		serials := []model.Serial{{ProductID: p.ID, BatchID: b.ID, SerialNumber: "SN1"}}
		require.NoError(t, uow.Serials().BulkCreate(ctx, serials))
		assert.NotZero(t, serials[0].ID)

		again := []model.Serial{{ProductID: p.ID, BatchID: b.ID, SerialNumber: "SN1"}}
		assert.ErrorIs(t, uow.Serials().BulkCreate(ctx, again), apperr.ErrConflict)
		return nil
	})
	require.NoError(t, err)

	dupCode := &model.Product{Code: "P-1", Name: "Other"}
	err = s.WithinTx(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		return uow.Products().Create(ctx, dupCode)
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestLedgerOrdering(t *testing.T) {
	s := New()
	p := seedProduct(t, s, 0)
	ctx := context.Background()
	serialID := int64(7)

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		for _, id := range []string{"a", "b", "c"} {
			if err := uow.Ledger().Append(ctx, &model.AdjustmentEntry{ID: id, ProductID: p.ID, SerialID: &serialID}); err != nil {
				return err
			}
		}
		return nil
	}))

	newest, err := s.Reader().Ledger().ListByProduct(ctx, p.ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, newest, 2)
	assert.Equal(t, "c", newest[0].ID)
	assert.Equal(t, "b", newest[1].ID)

	page2, err := s.Reader().Ledger().ListByProduct(ctx, p.ID, 2, 2)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "a", page2[0].ID)

	oldest, err := s.Reader().Ledger().ListBySerial(ctx, serialID)
	require.NoError(t, err)
	require.Len(t, oldest, 3)
	assert.Equal(t, "a", oldest[0].ID)
}
