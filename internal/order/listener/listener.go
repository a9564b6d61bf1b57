package listener

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fekuna/repairshop-service/internal/logger"
	"github.com/fekuna/repairshop-service/internal/order"
	"github.com/fekuna/repairshop-service/internal/order/dto"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type OrderListener struct {
	reader  MessageReader
	uc      order.UseCase
	logger  logger.ZapLogger
	backoff time.Duration
}

func NewOrderListener(reader MessageReader, uc order.UseCase, log logger.ZapLogger) *OrderListener {
	return &OrderListener{
		reader:  reader,
		uc:      uc,
		logger:  log,
		backoff: time.Second,
	}
}

// Start consumes until ctx ends. A message is committed once it is stored or found to be
// permanently unusable; store failures leave it uncommitted and the loop retries it.
func (l *OrderListener) Start(ctx context.Context) error {
	l.logger.Info("Starting order event listener")
	for {
		msg, err := l.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info("Stopping order event listener")
				return nil
			}
			l.logger.Error("Failed to read kafka message", zap.Error(err))
			if !l.sleep(ctx) {
				return nil
			}
			continue
		}

		for {
			err := l.processMessage(ctx, msg)
			if err == nil {
				break
			}
			l.logger.Error("Failed to store order event, retrying",
				zap.Int64("offset", msg.Offset),
				zap.Int("partition", msg.Partition),
				zap.Error(err),
			)
			if !l.sleep(ctx) {
				return nil
			}
		}

		if err := l.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			l.logger.Error("Failed to commit kafka offset", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

func (l *OrderListener) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(l.backoff):
		return true
	}
}

// processMessage returns an error only for failures worth retrying.
func (l *OrderListener) processMessage(ctx context.Context, msg kafka.Message) error {
	var event dto.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		l.logger.Warn("Skipping undecodable order event", zap.Int64("offset", msg.Offset), zap.Error(err))
		return nil
	}

	err := l.uc.HandleEvent(ctx, &event)
	switch {
	case err == nil:
		l.logger.Debug("Order event stored", zap.String("event_id", event.EventID), zap.String("event_type", event.EventType))
		return nil
	case errors.Is(err, order.ErrUnknownEvent), errors.Is(err, order.ErrInvalidEvent), errors.Is(err, order.ErrMissingID):
		l.logger.Warn("Skipping order event",
			zap.String("event_id", event.EventID),
			zap.String("event_type", event.EventType),
			zap.Error(err),
		)
		return nil
	}
	return err
}
