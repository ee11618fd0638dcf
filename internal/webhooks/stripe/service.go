package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/bonikcommerce/bonik-backend/pkg/enums"
	pkgerrors "github.com/bonikcommerce/bonik-backend/pkg/errors"
	"github.com/bonikcommerce/bonik-backend/pkg/logger"
	"github.com/bonikcommerce/bonik-backend/pkg/outbox"
	"github.com/bonikcommerce/bonik-backend/pkg/outbox/payloads"
)

// orderIDMetadataKey is the metadata entry checkout sets on every payment
// intent and charge.
const orderIDMetadataKey = "order_id"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type ServiceParams struct {
	Outbox            eventEmitter
	TransactionRunner txRunner
	Logger            *logger.Logger
}

// Service maps verified Stripe events onto the payment work queue.
type Service struct {
	outbox   eventEmitter
	txRunner txRunner
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox service required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		outbox:   params.Outbox,
		txRunner: params.TransactionRunner,
		logg:     params.Logger,
	}, nil
}

// HandleEvent enqueues the domain fact a verified Stripe event represents.
// Event types outside the payment lifecycle are acknowledged without action.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		return s.handlePaymentIntent(ctx, event, enums.EventStripeConfirmed)
	case stripe.EventTypePaymentIntentPaymentFailed:
		return s.handlePaymentIntent(ctx, event, enums.EventStripeFailed)
	case stripe.EventTypePaymentIntentCanceled:
		return s.handlePaymentIntent(ctx, event, enums.EventStripeCanceled)
	case stripe.EventTypeChargeRefunded:
		return s.handleChargeRefunded(ctx, event)
	case stripe.EventTypeChargeDisputeCreated:
		return s.handleDisputeCreated(ctx, event)
	default:
		return nil
	}
}

func (s *Service) handlePaymentIntent(ctx context.Context, event *stripe.Event, eventType enums.QueueEventType) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent event")
	}

	orderID := intent.Metadata[orderIDMetadataKey]
	if orderID == "" {
		s.logUnresolved(ctx, event)
		return nil
	}

	amount := intent.Amount
	if eventType == enums.EventStripeConfirmed && intent.AmountReceived > 0 {
		amount = intent.AmountReceived
	}

	payload := payloads.CardPaymentEvent{
		OrderID:       orderID,
		EventID:       event.ID,
		TransactionID: intent.ID,
		AmountMinor:   amount,
		Currency:      string(intent.Currency),
	}
	if eventType == enums.EventStripeFailed && intent.LastPaymentError != nil {
		payload.FailureReason = intent.LastPaymentError.Msg
	}

	return s.enqueue(ctx, eventType, orderID, payload)
}

func (s *Service) handleChargeRefunded(ctx context.Context, event *stripe.Event) error {
	var charge stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode charge event")
	}

	orderID := charge.Metadata[orderIDMetadataKey]
	if orderID == "" {
		s.logUnresolved(ctx, event)
		return nil
	}

	// AmountRefunded is cumulative across the charge's lifetime. The
	// refund that triggered this event is the newest list entry; fall
	// back to the cumulative figure only when the list is absent, which
	// is correct for a single full refund.
	amount := charge.AmountRefunded
	if charge.Refunds != nil && len(charge.Refunds.Data) > 0 {
		amount = charge.Refunds.Data[0].Amount
	}

	payload := payloads.CardRefundEvent{
		OrderID:     orderID,
		EventID:     event.ID,
		ChargeID:    charge.ID,
		AmountMinor: amount,
		Currency:    string(charge.Currency),
	}
	return s.enqueue(ctx, enums.EventStripeRefunded, orderID, payload)
}

func (s *Service) handleDisputeCreated(ctx context.Context, event *stripe.Event) error {
	var dispute stripe.Dispute
	if err := json.Unmarshal(event.Data.Raw, &dispute); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode dispute event")
	}

	orderID := dispute.Metadata[orderIDMetadataKey]
	if orderID == "" && dispute.PaymentIntent != nil {
		orderID = dispute.PaymentIntent.Metadata[orderIDMetadataKey]
	}
	if orderID == "" {
		s.logUnresolved(ctx, event)
		return nil
	}

	payload := payloads.CardDisputeEvent{
		OrderID:     orderID,
		EventID:     event.ID,
		DisputeID:   dispute.ID,
		Reason:      string(dispute.Reason),
		AmountMinor: dispute.Amount,
		Currency:    string(dispute.Currency),
	}
	return s.enqueue(ctx, enums.EventStripeDisputed, orderID, payload)
}

func (s *Service) enqueue(ctx context.Context, eventType enums.QueueEventType, orderID string, payload any) error {
	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Data:          payload,
			Version:       1,
		})
	})
}

func (s *Service) logUnresolved(ctx context.Context, event *stripe.Event) {
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"stripe_event_id": event.ID,
		"stripe_type":     string(event.Type),
	})
	s.logg.Warn(logCtx, "stripe event carries no order reference")
}
