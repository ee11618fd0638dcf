package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bonikcommerce/bonik-backend/pkg/db/models"
	"github.com/bonikcommerce/bonik-backend/pkg/enums"
	pkgerrors "github.com/bonikcommerce/bonik-backend/pkg/errors"
	"github.com/bonikcommerce/bonik-backend/pkg/logger"
	"github.com/bonikcommerce/bonik-backend/pkg/metrics"
	"github.com/bonikcommerce/bonik-backend/pkg/outbox"
	"github.com/bonikcommerce/bonik-backend/pkg/outbox/idempotency"
	"github.com/bonikcommerce/bonik-backend/pkg/redis"
)

const (
	paymentConsumerName  = "payment-events"
	defaultMaxAttempts   = 3
	attemptCounterWindow = 24 * time.Hour
)

type notificationWriter interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type consumerTxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ConsumerParams struct {
	Subscription      *pubsub.Subscriber
	Processor         *Processor
	Guard             *idempotency.Guard
	Attempts          redis.AttemptCounter
	WebhookLog        webhookLogRepository
	Notifications     notificationWriter
	TransactionRunner consumerTxRunner
	Metrics           *metrics.WebhookMetrics
	MaxAttempts       int
	Logger            *logger.Logger
}

// Consumer drains the payments subscription. Each message is processed
// independently; a Nack redelivers only that message and a Redis attempt
// counter bounds how often before the delivery is parked as failed.
type Consumer struct {
	subscription *pubsub.Subscriber
	processor    *Processor
	guard        *idempotency.Guard
	attempts     redis.AttemptCounter
	webhookLog   webhookLogRepository
	notifier     notificationWriter
	txRunner     consumerTxRunner
	metrics      *metrics.WebhookMetrics
	maxAttempts  int
	logg         *logger.Logger
}

func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Subscription == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments subscription required")
	}
	if params.Processor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment processor required")
	}
	if params.Guard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard required")
	}
	if params.Attempts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "attempt counter required")
	}
	if params.WebhookLog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "webhook log required")
	}
	if params.Notifications == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifications repository required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	if params.MaxAttempts <= 0 {
		params.MaxAttempts = defaultMaxAttempts
	}
	return &Consumer{
		subscription: params.Subscription,
		processor:    params.Processor,
		guard:        params.Guard,
		attempts:     params.Attempts,
		webhookLog:   params.WebhookLog,
		notifier:     params.Notifications,
		txRunner:     params.TransactionRunner,
		metrics:      params.Metrics,
		maxAttempts:  params.MaxAttempts,
		logg:         params.Logger,
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
	started := time.Now()
	rawType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": rawType,
	})

	eventType := enums.QueueEventType(rawType)
	if !eventType.IsPaymentEvent() {
		c.logg.Info(logCtx, "skipping non-payment event")
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

	seen, err := c.guard.Seen(ctx, paymentConsumerName, envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if seen {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	resolution, err := c.processor.Process(ctx, eventType, envelope)
	if err != nil {
		c.logg.Error(logCtx, "payment event processing failed", err)
		return c.handleFailure(ctx, logCtx, eventType, envelope)
	}

	if err := c.guard.Mark(ctx, paymentConsumerName, envelope.EventID); err != nil {
		// The transaction committed; a redelivery resolves as a duplicate
		// against the durable log.
		c.logg.Warn(logCtx, "failed to mark event processed")
	}
	_ = c.attempts.Del(ctx, c.attempts.AttemptKey(paymentConsumerName, envelope.EventID))

	switch resolution.Result {
	case ResultApplied:
		c.metrics.IncProcessed(string(eventType))
	case ResultRejected:
		c.metrics.IncFailed(string(eventType))
	}
	c.metrics.ObserveDuration(string(eventType), time.Since(started))
	return processResult{ack: true}
}

// handleFailure decides between redelivery and parking the message once
// the bounded retry budget is spent.
func (c *Consumer) handleFailure(ctx context.Context, logCtx context.Context, eventType enums.QueueEventType, envelope outbox.PayloadEnvelope) processResult {
	key := c.attempts.AttemptKey(paymentConsumerName, envelope.EventID)
	attempt, err := c.attempts.IncrWithTTL(ctx, key, attemptCounterWindow)
	if err != nil {
		// Without the counter the queue's own redelivery limit is the
		// only bound; keep retrying.
		c.logg.Error(logCtx, "attempt counter unavailable", err)
		return processResult{nack: true}
	}
	if attempt < int64(c.maxAttempts) {
		c.logg.Warn(c.logg.WithField(logCtx, "attempt", attempt), "payment event will be redelivered")
		return processResult{nack: true}
	}

	if err := c.parkExhausted(ctx, eventType, envelope); err != nil {
		c.logg.Error(logCtx, "failed to park exhausted event", err)
		return processResult{nack: true}
	}
	_ = c.attempts.Del(ctx, key)
	c.metrics.IncFailed(string(eventType))
	c.logg.Warn(logCtx, "payment event exhausted retries")
	return processResult{ack: true}
}

// parkExhausted writes the terminal failed record and raises an operator
// alert so the delivery is never silently lost.
func (c *Consumer) parkExhausted(ctx context.Context, eventType enums.QueueEventType, envelope outbox.PayloadEnvelope) error {
	reason := fmt.Sprintf("retries exhausted after %d attempts", c.maxAttempts)
	err := c.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		event := &models.WebhookEvent{
			ID:         uuid.New(),
			Gateway:    gatewayForEvent(eventType),
			EventType:  string(eventType),
			NaturalKey: "exhausted:" + envelope.EventID,
			Payload:    envelope.Data,
			Outcome:    enums.WebhookOutcomeFailed,
			Error:      &reason,
		}
		return c.webhookLog.InsertTx(tx, event)
	})
	if err != nil {
		return err
	}

	return c.notifier.Create(ctx, &models.Notification{
		Type:    enums.NotificationTypePipeline,
		Title:   "Payment event parked",
		Message: fmt.Sprintf("Event %s (%s) failed %d times and needs manual review.", envelope.EventID, eventType, c.maxAttempts),
	})
}

func gatewayForEvent(eventType enums.QueueEventType) enums.Gateway {
	if strings.HasPrefix(string(eventType), "payment.sslcommerz.") {
		return enums.GatewaySSLCommerz
	}
	return enums.GatewayStripe
}
