package usecase

import (
	"context"
	"testing"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/serial"
	"github.com/fekuna/omnipos-stock-service/internal/serial/dto"
	"github.com/fekuna/omnipos-stock-service/internal/store"
	"github.com/fekuna/omnipos-stock-service/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seed creates a serial-tracked product with one batch holding numbers.
func seed(t *testing.T, st *memory.Store, numbers ...string) (*model.Product, *model.Batch, []model.Serial) {
	t.Helper()
	p := &model.Product{Code: "PHONE", Name: "Phone", TrackingType: model.TrackingSerial, Quantity: int64(len(numbers)), IsActive: true}
	uid := "BAT-1-1"
	b := &model.Batch{BatchUID: &uid, Sequence: 1, Quantity: int64(len(numbers)), IsActive: true}
	var serials []model.Serial
	require.NoError(t, st.WithinTx(context.Background(), func(ctx context.Context, uow store.UnitOfWork) error {
		if err := uow.Products().Create(ctx, p); err != nil {
			return err
		}
		b.ProductID = p.ID
		if err := uow.Batches().Create(ctx, b); err != nil {
			return err
		}
		var err error
		serials, err = serial.Register(ctx, uow, b, numbers)
		return err
	}))
	return p, b, serials
}

func newUseCase(st *memory.Store) serial.UseCase {
	return NewSerialUseCase(st, ledger.New(st.Reader()), logger.NewNop())
}

func TestReclassifyWritesLedgerEntry(t *testing.T) {
	st := memory.New()
	uc := newUseCase(st)
	p, b, serials := seed(t, st, "SN001", "SN002")
	ctx := context.Background()

	s, err := uc.Reclassify(ctx, &dto.ReclassifyInput{SerialID: serials[0].ID, To: model.SerialInRepair, Reason: "screen"})
	require.NoError(t, err)
	assert.Equal(t, model.SerialInRepair, s.Status)

	s, err = uc.Reclassify(ctx, &dto.ReclassifyInput{SerialID: serials[0].ID, To: model.SerialAvailable, Reason: "fixed"})
	require.NoError(t, err)
	assert.Equal(t, model.SerialAvailable, s.Status)

	history, err := uc.TraceHistory(ctx, serials[0].ID)
	require.NoError(t, err)
	require.NotNil(t, history.Batch)
	assert.Equal(t, b.ID, history.Batch.ID)
	require.Len(t, history.Entries, 2)
	for _, e := range history.Entries {
		assert.Equal(t, model.CategoryReclassify, e.Category)
		assert.Zero(t, e.Delta)
		assert.Equal(t, p.Quantity, e.NewQuantity)
	}
	assert.Contains(t, history.Entries[0].Reason, "available -> in_repair")
}

func TestReclassifyRejections(t *testing.T) {
	st := memory.New()
	uc := newUseCase(st)
	_, _, serials := seed(t, st, "SN001", "SN002", "SN003")
	ctx := context.Background()

	require.NoError(t, st.WithinTx(ctx, func(ctx context.Context, uow store.UnitOfWork) error {
		if _, err := serial.Transition(ctx, uow, serials[1].ID, model.SerialSold); err != nil {
			return err
		}
		_, err := serial.Transition(ctx, uow, serials[2].ID, model.SerialDefective)
		return err
	}))

	tests := []struct {
		name  string
		input dto.ReclassifyInput
		want  error
	}{
		{"sold target", dto.ReclassifyInput{SerialID: serials[0].ID, To: model.SerialSold}, apperr.ErrInvalidInput},
		{"adjusted out target", dto.ReclassifyInput{SerialID: serials[0].ID, To: model.SerialAdjustedOut}, apperr.ErrInvalidInput},
		{"sold serial", dto.ReclassifyInput{SerialID: serials[1].ID, To: model.SerialAvailable}, apperr.ErrInvalidTransition},
		{"defective is final", dto.ReclassifyInput{SerialID: serials[2].ID, To: model.SerialAvailable}, apperr.ErrInvalidTransition},
		{"unknown serial", dto.ReclassifyInput{SerialID: 404, To: model.SerialDefective}, apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Reclassify(ctx, &tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	entries, err := st.Reader().Ledger().ListBySerial(ctx, serials[0].ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLookups(t *testing.T) {
	st := memory.New()
	uc := newUseCase(st)
	p, b, serials := seed(t, st, "SN-A", "SN-B", "SN-C")
	ctx := context.Background()

	got, err := uc.FindByCompositeKey(ctx, p.ID, *b.BatchUID, "SN-B")
	require.NoError(t, err)
	assert.Equal(t, serials[1].ID, got.ID)

	_, err = uc.FindByCompositeKey(ctx, p.ID, "BAT-1-9", "SN-B")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	matches, err := uc.FindByExactMatch(ctx, "SN-C")
	require.NoError(t, err)
	require.Len(t, matches, 1)

	all, err := uc.FindAllInBatch(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byIDs, err := uc.FindByIDs(ctx, []int64{serials[0].ID, 999})
	require.NoError(t, err)
	assert.Len(t, byIDs, 1)

	_, err = uc.Reclassify(ctx, &dto.ReclassifyInput{SerialID: serials[0].ID, To: model.SerialDefective})
	require.NoError(t, err)
	available, err := uc.AvailableForProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, available, 2)

	_, err = uc.AvailableForProduct(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = uc.GetSerial(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
