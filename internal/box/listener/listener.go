package listener

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fekuna/omnipos-challan-service/internal/apperror"
	"github.com/fekuna/omnipos-challan-service/internal/box"
	"github.com/fekuna/omnipos-challan-service/internal/box/dto"
	"github.com/fekuna/omnipos-challan-service/internal/logger"
	"github.com/fekuna/omnipos-challan-service/internal/model"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	EventStockDispatched = "StockDispatched"
	EventStockReceived   = "StockReceived"
)

type Consumer interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, msg kafka.Message) error
}

type StockListener struct {
	consumer Consumer
	uc       box.UseCase
	logger   logger.ZapLogger
}

func NewStockListener(consumer Consumer, uc box.UseCase, logger logger.ZapLogger) *StockListener {
	return &StockListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
	}
}

type StockEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   StockPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type StockPayload struct {
	BoxID     string             `json:"box_id"`
	UserID    string             `json:"user_id"`
	Reference string             `json:"reference"`
	Items     []StockItemPayload `json:"items"`
}

type StockItemPayload struct {
	Color    string `json:"color"`
	Quantity int    `json:"quantity"`
}

func (l *StockListener) Start(ctx context.Context) {
	l.logger.Info("Starting stock movement listener")
	for {
		if ctx.Err() != nil {
			l.logger.Info("Stopping stock movement listener")
			return
		}

		msg, err := l.consumer.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			l.logger.Error("Failed to fetch kafka message", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		if err := l.Process(ctx, msg.Value); err != nil {
			// Not committed: the message is redelivered.
			l.logger.Error("Failed to process stock event", zap.Int64("offset", msg.Offset), zap.Error(err))
			continue
		}
		if err := l.consumer.Commit(ctx, msg); err != nil {
			l.logger.Error("Failed to commit offset", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

// Process applies one event atomically. Malformed and permanently invalid events return nil
// so they are skipped with nothing applied; redelivered event ids are no-ops.
func (l *StockListener) Process(ctx context.Context, value []byte) error {
	var event StockEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal stock event", zap.Error(err))
		return nil
	}

	var action model.AuditAction
	switch event.EventType {
	case EventStockDispatched:
		action = model.AuditActionSubtract
	case EventStockReceived:
		action = model.AuditActionAdd
	default:
		return nil
	}

	l.logger.Info("Processing stock event",
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.EventType),
		zap.String("box_id", event.Payload.BoxID),
	)

	userID := event.Payload.UserID
	if userID == "" {
		userID = "system"
	}
	items := make([]dto.StockRequest, len(event.Payload.Items))
	for i, item := range event.Payload.Items {
		items[i] = dto.StockRequest{Color: item.Color, Quantity: item.Quantity}
	}

	_, err := l.uc.ApplyMovements(ctx, &dto.ApplyMovementsInput{
		EventID: event.EventID,
		BoxID:   event.Payload.BoxID,
		UserID:  userID,
		Action:  action,
		Note:    event.EventType + ":" + event.Payload.Reference,
		Items:   items,
	})
	if err == nil {
		return nil
	}
	if isPermanent(err) && !apperror.IsRetryable(err) {
		l.logger.Error("Rejected stock event",
			zap.String("event_id", event.EventID),
			zap.String("box_id", event.Payload.BoxID),
			zap.Error(err),
		)
		return nil
	}
	return err
}

func isPermanent(err error) bool {
	return errors.Is(err, apperror.ErrValidation) ||
		errors.Is(err, apperror.ErrNotFound) ||
		errors.Is(err, apperror.ErrInsufficientStock)
}
