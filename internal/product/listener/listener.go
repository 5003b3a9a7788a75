package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/pricewatch-service/internal/product"
	"github.com/fekuna/pricewatch-service/internal/product/dto"
	"github.com/fekuna/pricewatch-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is satisfied by *broker.KafkaConsumer.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

type AdminListener struct {
	consumer MessageReader
	uc       product.UseCase
	logger   logger.ZapLogger
}

func NewAdminListener(consumer MessageReader, uc product.UseCase, logger logger.ZapLogger) *AdminListener {
	return &AdminListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
	}
}

func (l *AdminListener) Start(ctx context.Context) {
	l.logger.Info("Starting admin command listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping admin command listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type CommandEvent struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Actor     string          `json:"actor"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// processMessage logs and skips commands it cannot apply.
func (l *AdminListener) processMessage(ctx context.Context, value []byte) {
	var event CommandEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	log := l.logger.With(zap.String("event_type", event.EventType), zap.String("event_id", event.EventID))

	switch event.EventType {
	case "MergeProducts":
		var input dto.MergeProductsInput
		if err := json.Unmarshal(event.Payload, &input); err != nil {
			log.Error("Invalid payload", zap.Error(err))
			return
		}
		if input.Actor == "" {
			input.Actor = event.Actor
		}
		if _, err := l.uc.MergeProducts(ctx, &input); err != nil {
			log.Error("Merge command failed",
				zap.Int64("keep_id", input.KeepID),
				zap.Int64("drop_id", input.DropID),
				zap.Error(err),
			)
		}
	case "SetShopURL":
		var input dto.SetShopURLInput
		if err := json.Unmarshal(event.Payload, &input); err != nil {
			log.Error("Invalid payload", zap.Error(err))
			return
		}
		if input.Actor == "" {
			input.Actor = event.Actor
		}
		if err := l.uc.SetShopURL(ctx, &input); err != nil {
			log.Error("Set shop url command failed",
				zap.Int64("product_id", input.ProductID),
				zap.Int64("shop_id", input.ShopID),
				zap.Error(err),
			)
		}
	default:
		// other producers share the topic
	}
}
