package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/bonikcommerce/bonik-backend/pkg/db/models"
	"github.com/bonikcommerce/bonik-backend/pkg/enums"
	"github.com/bonikcommerce/bonik-backend/pkg/logger"
	"github.com/bonikcommerce/bonik-backend/pkg/outbox"
	"github.com/bonikcommerce/bonik-backend/pkg/outbox/idempotency"
	"github.com/bonikcommerce/bonik-backend/pkg/outbox/payloads"
)

const orderNotificationConsumer = "order-notifications"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Consumer turns order.notification events into stored operator alerts.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	guard        *idempotency.Guard
	logg         *logger.Logger
}

// NewConsumer builds an order notification consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, guard *idempotency.Guard, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("notifications subscription required")
	}
	if guard == nil {
		return nil, fmt.Errorf("idempotency guard required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		guard:        guard,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventOrderNotification) {
		c.logg.Info(logCtx, "skipping non-notification event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}
	if envelope.EventID == "" {
		c.logg.Error(logCtx, "envelope missing event id", nil)
		return processResult{ack: true}
	}
	logCtx = c.logg.WithEventID(logCtx, envelope.EventID)

	seen, err := c.guard.Seen(ctx, orderNotificationConsumer, envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if seen {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	var payload payloads.OrderNotificationEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return processResult{ack: true}
	}
	logCtx = c.logg.WithOrderID(logCtx, payload.OrderID)

	if err := c.handlePayload(ctx, payload); err != nil {
		c.logg.Error(logCtx, "notification write failed", err)
		return processResult{nack: true}
	}

	if err := c.guard.Mark(ctx, orderNotificationConsumer, envelope.EventID); err != nil {
		// The row is committed; a redelivery produces a duplicate alert at worst.
		c.logg.Warn(logCtx, "failed to mark event processed")
	}

	c.logg.Info(logCtx, "notification recorded")
	return processResult{ack: true}
}

func (c *Consumer) handlePayload(ctx context.Context, payload payloads.OrderNotificationEvent) error {
	if payload.OrderID == "" {
		return fmt.Errorf("order id missing")
	}
	notificationType := payload.Type
	if !notificationType.IsValid() {
		notificationType = enums.NotificationTypeOrder
	}
	title := payload.Title
	if title == "" {
		title = "Order update"
	}
	notification := &models.Notification{
		Type:    notificationType,
		Title:   title,
		Message: payload.Message,
		OrderID: &payload.OrderID,
	}
	return c.repo.Create(ctx, notification)
}
