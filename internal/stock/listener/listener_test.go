package listener

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	"github.com/fekuna/omnipos-stock-service/internal/stock/usecase"
	"github.com/fekuna/omnipos-stock-service/internal/store"
	"github.com/fekuna/omnipos-stock-service/internal/store/memory"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStock struct {
	mu      sync.Mutex
	sales   []*dto.Document
	returns []*dto.Document
	actors  []string
}

func (r *recordingStock) AdjustManual(context.Context, *dto.AdjustInput) (*dto.AdjustResult, error) {
	return nil, errors.New("unexpected")
}

func (r *recordingStock) RecordSale(ctx context.Context, doc *dto.Document) ([]model.AdjustmentEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sales = append(r.sales, doc)
	r.actors = append(r.actors, auth.GetActor(ctx))
	return nil, nil
}

func (r *recordingStock) RecordReturn(ctx context.Context, doc *dto.Document) ([]model.AdjustmentEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.returns = append(r.returns, doc)
	r.actors = append(r.actors, auth.GetActor(ctx))
	return nil, nil
}

func (r *recordingStock) History(context.Context, int64, int, int) ([]model.AdjustmentEntry, error) {
	return nil, nil
}

// chanReader hands out queued messages, then blocks until ctx is done.
type chanReader struct {
	msgs chan kafka.Message
}

func (c *chanReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-c.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func event(t *testing.T, eventType string, items ...OrderItemPayload) kafka.Message {
	t.Helper()
	b, err := json.Marshal(OrderEvent{
		EventID:   "evt-" + eventType,
		EventType: eventType,
		Payload:   OrderPayload{ID: "ORD-9", Items: items},
	})
	require.NoError(t, err)
	return kafka.Message{Value: b}
}

func TestProcessMessage(t *testing.T) {
	rec := &recordingStock{}
	l := NewOrderListener(nil, rec, logger.NewNop())
	ctx := context.Background()
	serialID := int64(3)

	l.processMessage(ctx, event(t, EventOrderCreated,
		OrderItemPayload{ProductID: 1, Quantity: 2},
		OrderItemPayload{ProductID: 2, SerialID: &serialID, Quantity: 1},
	))
	l.processMessage(ctx, event(t, EventOrderReturned, OrderItemPayload{ProductID: 1, Quantity: 1}))
	l.processMessage(ctx, event(t, "OrderPaid"))
	l.processMessage(ctx, kafka.Message{Value: []byte("{not json")})

	require.Len(t, rec.sales, 1)
	require.Len(t, rec.returns, 1)

	sale := rec.sales[0]
	assert.Equal(t, "order", sale.ReferenceType)
	assert.Equal(t, "ORD-9", sale.ReferenceID)
	assert.Equal(t, "order-event:evt-OrderCreated", sale.IdempotencyKey)
	require.Len(t, sale.Lines, 2)
	assert.Equal(t, int64(2), sale.Lines[0].Quantity)
	assert.Equal(t, serialID, *sale.Lines[1].SerialID)
	assert.Equal(t, []string{listenerActor, listenerActor}, rec.actors)
}

func TestStartStopsOnCancel(t *testing.T) {
	rec := &recordingStock{}
	reader := &chanReader{msgs: make(chan kafka.Message, 1)}
	reader.msgs <- event(t, EventOrderCreated, OrderItemPayload{ProductID: 1, Quantity: 1})
	l := NewOrderListener(reader, rec, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.sales) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestEventKey(t *testing.T) {
	msg := kafka.Message{Topic: "orders.events", Partition: 2, Offset: 41}
	assert.Equal(t, "order-event:e-1", eventKey(OrderEvent{EventID: "e-1"}, msg))
	assert.Equal(t, "kafka:orders.events/2/41", eventKey(OrderEvent{}, msg))
}

func TestRedeliveredEventIsRecordedOnce(t *testing.T) {
	st := memory.New()
	p := &model.Product{Code: "RICE", Name: "Rice", TrackingType: model.TrackingBatch, Quantity: 10, IsActive: true}
	uid := "BAT-1-1"
	b := &model.Batch{BatchUID: &uid, Sequence: 1, Quantity: 10, IsActive: true}
	require.NoError(t, st.WithinTx(context.Background(), func(ctx context.Context, uow store.UnitOfWork) error {
		if err := uow.Products().Create(ctx, p); err != nil {
			return err
		}
		b.ProductID = p.ID
		return uow.Batches().Create(ctx, b)
	}))

	log := logger.NewNop()
	l := NewOrderListener(nil, usecase.NewStockUseCase(st, ledger.New(st.Reader()), nil, log), log)
	ctx := context.Background()

	sale := event(t, EventOrderCreated, OrderItemPayload{ProductID: p.ID, BatchID: &b.ID, Quantity: 3})
	l.processMessage(ctx, sale)
	l.processMessage(ctx, sale)

	gotProduct, err := st.Reader().Products().FindByID(ctx, p.ID)
	require.NoError(t, err)
	gotBatch, err := st.Reader().Batches().FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), gotProduct.Quantity)
	assert.Equal(t, int64(7), gotBatch.Quantity)

	entries, err := st.Reader().Ledger().ListByProduct(ctx, p.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// A return of the same order is a different event and still applies.
	l.processMessage(ctx, event(t, EventOrderReturned, OrderItemPayload{ProductID: p.ID, BatchID: &b.ID, Quantity: 3}))
	gotProduct, err = st.Reader().Products().FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), gotProduct.Quantity)
}
