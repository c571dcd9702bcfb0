package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/stock"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	EventOrderCreated  = "OrderCreated"
	EventOrderReturned = "OrderReturned"

	referenceOrder = "order"
	listenerActor  = "order-events"
)

// MessageReader is satisfied by *broker.KafkaConsumer.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type OrderListener struct {
	consumer MessageReader
	uc       stock.UseCase
	logger   logger.ZapLogger
	backoff  time.Duration
}

func NewOrderListener(consumer MessageReader, uc stock.UseCase, log logger.ZapLogger) *OrderListener {
	return &OrderListener{
		consumer: consumer,
		uc:       uc,
		logger:   log,
		backoff:  time.Second,
	}
}

// Start blocks until ctx is cancelled.
func (l *OrderListener) Start(ctx context.Context) {
	l.logger.Info("starting order event listener")
	for {
		msg, err := l.consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info("stopping order event listener")
				return
			}
			l.logger.Error("failed to read kafka message", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(l.backoff):
			}
			continue
		}
		l.processMessage(ctx, msg)
	}
}

type OrderEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   OrderPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type OrderPayload struct {
	ID    string             `json:"id"`
	Items []OrderItemPayload `json:"items"`
}

type OrderItemPayload struct {
	ProductID int64  `json:"product_id"`
	BatchID   *int64 `json:"batch_id"`
	SerialID  *int64 `json:"serial_id"`
	Quantity  int64  `json:"quantity"`
}

// eventKey identifies a delivery so a redelivered event is recorded once. Events
// without an id fall back to their position in the topic.
func eventKey(event OrderEvent, msg kafka.Message) string {
	if event.EventID != "" {
		return "order-event:" + event.EventID
	}
	return fmt.Sprintf("kafka:%s/%d/%d", msg.Topic, msg.Partition, msg.Offset)
}

func (l *OrderListener) processMessage(ctx context.Context, msg kafka.Message) {
	var event OrderEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		l.logger.Error("failed to unmarshal order event", zap.Error(err))
		return
	}

	var record func(context.Context, *dto.Document) error
	switch event.EventType {
	case EventOrderCreated:
		record = func(ctx context.Context, doc *dto.Document) error {
			_, err := l.uc.RecordSale(ctx, doc)
			return err
		}
	case EventOrderReturned:
		record = func(ctx context.Context, doc *dto.Document) error {
			_, err := l.uc.RecordReturn(ctx, doc)
			return err
		}
	default:
		return
	}

	doc := &dto.Document{
		ReferenceType:  referenceOrder,
		ReferenceID:    event.Payload.ID,
		Reason:         event.EventType,
		IdempotencyKey: eventKey(event, msg),
		Lines:          make([]dto.SaleLine, 0, len(event.Payload.Items)),
	}
	for _, item := range event.Payload.Items {
		doc.Lines = append(doc.Lines, dto.SaleLine{
			ProductID: item.ProductID,
			BatchID:   item.BatchID,
			SerialID:  item.SerialID,
			Quantity:  item.Quantity,
		})
	}

	l.logger.Info("processing order event",
		zap.String("event_type", event.EventType),
		zap.String("order_id", event.Payload.ID),
	)
	if err := record(auth.WithActor(ctx, listenerActor), doc); err != nil {
		l.logger.Error("failed to record order event",
			zap.String("event_id", event.EventID),
			zap.String("order_id", event.Payload.ID),
			zap.Error(err),
		)
	}
}
