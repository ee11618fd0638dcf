package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bonikcommerce/bonik-backend/internal/webhooklog"
	"github.com/bonikcommerce/bonik-backend/pkg/db/models"
	"github.com/bonikcommerce/bonik-backend/pkg/enums"
	pkgerrors "github.com/bonikcommerce/bonik-backend/pkg/errors"
	"github.com/bonikcommerce/bonik-backend/pkg/logger"
	"github.com/bonikcommerce/bonik-backend/pkg/money"
	"github.com/bonikcommerce/bonik-backend/pkg/outbox"
	"github.com/bonikcommerce/bonik-backend/pkg/outbox/payloads"
)

// Result classifies how one queue message resolved.
type Result int

const (
	ResultApplied Result = iota
	ResultDuplicate
	ResultRejected
)

// Resolution is the processor verdict for one delivery. Rejected carries
// the domain reason; rejected deliveries are acknowledged, never retried.
type Resolution struct {
	Result Result
	Reason string
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type orderRepository interface {
	FindByIDTx(tx *gorm.DB, id string) (*models.Order, error)
	UpdateWithVersionTx(tx *gorm.DB, order *models.Order, loadedVersion int) error
}

type planRepository interface {
	FindByOrderTx(tx *gorm.DB, orderID string) (*models.PaymentPlan, error)
	CreateTx(tx *gorm.DB, plan *models.PaymentPlan) error
	UpdateTx(tx *gorm.DB, plan *models.PaymentPlan) error
}

type ledgerRepository interface {
	InsertTx(tx *gorm.DB, entry *models.PaymentLedgerEntry) error
}

type webhookLogRepository interface {
	InsertTx(tx *gorm.DB, event *models.WebhookEvent) error
	HasProcessedTx(tx *gorm.DB, naturalKey string) (bool, error)
}

type inventoryReleaser interface {
	Release(ctx context.Context, tx *gorm.DB, order *models.Order) error
}

type ProcessorParams struct {
	Orders            orderRepository
	Plans             planRepository
	Ledger            ledgerRepository
	WebhookLog        webhookLogRepository
	Inventory         inventoryReleaser
	Outbox            eventEmitter
	TransactionRunner txRunner
	Logger            *logger.Logger
}

// Processor applies one payment event at a time against order state. All
// writes for a delivery happen in a single transaction guarded by the
// order's optimistic version; conflicts surface as errors and the queue
// redelivers.
type Processor struct {
	orders     orderRepository
	plans      planRepository
	ledger     ledgerRepository
	webhookLog webhookLogRepository
	inventory  inventoryReleaser
	outbox     eventEmitter
	txRunner   txRunner
	logg       *logger.Logger
}

func NewProcessor(params ProcessorParams) (*Processor, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repository required")
	}
	if params.Plans == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "plan repository required")
	}
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger repository required")
	}
	if params.WebhookLog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "webhook log required")
	}
	if params.Inventory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "inventory service required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox service required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Processor{
		orders:     params.Orders,
		plans:      params.Plans,
		ledger:     params.Ledger,
		webhookLog: params.WebhookLog,
		inventory:  params.Inventory,
		outbox:     params.Outbox,
		txRunner:   params.TransactionRunner,
		logg:       params.Logger,
	}, nil
}

// Process applies one decoded queue message. An error return means the
// delivery may be retried; a Rejected resolution means it must not be.
func (p *Processor) Process(ctx context.Context, eventType enums.QueueEventType, envelope outbox.PayloadEnvelope) (Resolution, error) {
	decoded, err := decodePayload(eventType, envelope.Data)
	if err != nil {
		p.logg.Error(ctx, "undecodable payment event", err)
		return Resolution{Result: ResultRejected, Reason: err.Error()}, nil
	}

	logCtx := p.logg.WithFields(ctx, map[string]any{
		"event_type":  string(eventType),
		"natural_key": decoded.NaturalKey,
	})
	logCtx = p.logg.WithOrderID(logCtx, decoded.OrderID)

	var res Resolution
	err = p.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		processed, err := p.webhookLog.HasProcessedTx(tx, decoded.NaturalKey)
		if err != nil {
			return err
		}
		if processed {
			res = Resolution{Result: ResultDuplicate}
			return nil
		}

		order, err := p.orders.FindByIDTx(tx, decoded.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			res = Resolution{Result: ResultRejected, Reason: "order not found"}
			return p.recordEvent(tx, eventType, decoded, nil, enums.WebhookOutcomeFailed, res.Reason)
		}

		loadedVersion := order.Version
		rejection, dirty, err := p.apply(ctx, tx, eventType, order, decoded)
		if err != nil {
			return err
		}
		if rejection != "" {
			res = Resolution{Result: ResultRejected, Reason: rejection}
			return p.recordEvent(tx, eventType, decoded, &order.ID, enums.WebhookOutcomeFailed, rejection)
		}

		if dirty {
			if err := p.orders.UpdateWithVersionTx(tx, order, loadedVersion); err != nil {
				return err
			}
		}

		res = Resolution{Result: ResultApplied}
		return p.recordEvent(tx, eventType, decoded, &order.ID, enums.WebhookOutcomeProcessed, "")
	})
	if err != nil {
		return Resolution{}, err
	}

	switch res.Result {
	case ResultApplied:
		p.logg.Info(logCtx, "payment event applied")
	case ResultDuplicate:
		p.logg.Info(logCtx, "payment event already processed")
	case ResultRejected:
		p.logg.Warn(p.logg.WithField(logCtx, "reason", res.Reason), "payment event rejected")
	}
	return res, nil
}

// apply mutates order state for the event. It returns a non-empty rejection
// reason for domain refusals, which commit a failed log row and stop.
func (p *Processor) apply(ctx context.Context, tx *gorm.DB, eventType enums.QueueEventType, order *models.Order, decoded decodedEvent) (string, bool, error) {
	switch eventType {
	case enums.EventStripeConfirmed, enums.EventSSLCommerzConfirmed:
		return p.applyConfirm(ctx, tx, order, decoded)
	case enums.EventStripeFailed, enums.EventSSLCommerzFailed:
		// A failed attempt settles no money. The decline reason lands on
		// the order for support visibility; a later confirm clears it.
		reason := failureReason(decoded.Payload)
		order.PaymentFailureReason = &reason
		return "", true, nil
	case enums.EventStripeCanceled, enums.EventSSLCommerzCanceled:
		return p.applyCancel(ctx, tx, order, decoded)
	case enums.EventStripeRefunded, enums.EventSSLCommerzRefunded:
		return p.applyRefund(ctx, tx, order, decoded)
	case enums.EventStripeDisputed:
		return p.applyDispute(ctx, tx, order, decoded)
	default:
		return fmt.Sprintf("event type %q not handled", eventType), false, nil
	}
}

func (p *Processor) applyConfirm(ctx context.Context, tx *gorm.DB, order *models.Order, decoded decodedEvent) (string, bool, error) {
	if order.PaymentStatus == enums.PaymentStatusPaid {
		return "order already fully paid", false, nil
	}

	amount, txnID, err := settledAmount(order, decoded.Payload)
	if err != nil {
		return err.Error(), false, nil
	}
	if !amount.IsPositive() {
		return "confirmed amount must be positive", false, nil
	}
	if amount.GreaterThan(order.Outstanding()) {
		return "confirmed amount exceeds outstanding balance", false, nil
	}

	now := time.Now().UTC()
	entryType := enums.LedgerEntryCharge

	plan, err := p.plans.FindByOrderTx(tx, order.ID)
	if err != nil {
		return "", false, err
	}
	switch {
	case plan == nil && amount.Equal(order.Outstanding()):
		// Single full settlement, no installment plan involved.
	case plan == nil:
		// Partial first payment opens a deposit plan for the remainder.
		entryType = enums.LedgerEntryDeposit
		plan = &models.PaymentPlan{
			ID:            uuid.New(),
			OrderID:       order.ID,
			TotalAmount:   order.Outstanding(),
			DepositAmount: amount,
			BalanceAmount: order.Outstanding().Sub(amount),
			DepositPaidAt: &now,
			Status:        enums.PaymentPlanActive,
		}
		if err := p.plans.CreateTx(tx, plan); err != nil {
			return "", false, err
		}
	case !plan.DepositSettled():
		entryType = enums.LedgerEntryDeposit
		plan.DepositPaidAt = &now
		if err := p.plans.UpdateTx(tx, plan); err != nil {
			return "", false, err
		}
	default:
		entryType = enums.LedgerEntryBalance
		plan.BalancePaidAt = &now
		plan.Status = enums.PaymentPlanSettled
		if err := p.plans.UpdateTx(tx, plan); err != nil {
			return "", false, err
		}
	}

	order.PaidAmount = order.PaidAmount.Add(amount)
	order.Gateway = &decoded.Gateway
	order.PaymentFailureReason = nil
	if txnID != "" {
		order.TransactionID = &txnID
	}
	if order.PaidAmount.GreaterThanOrEqual(order.TotalAmount) {
		order.PaymentStatus = enums.PaymentStatusPaid
	} else {
		order.PaymentStatus = enums.PaymentStatusPartial
	}

	if err := p.ledger.InsertTx(tx, &models.PaymentLedgerEntry{
		ID:            uuid.New(),
		OrderID:       order.ID,
		Gateway:       decoded.Gateway,
		Type:          entryType,
		Amount:        amount,
		Currency:      order.Currency,
		TransactionID: txnID,
		EventID:       decoded.NaturalKey,
	}); err != nil {
		return "", false, err
	}

	if order.PaymentStatus == enums.PaymentStatusPaid {
		if err := p.notify(ctx, tx, order.ID, "Payment received",
			fmt.Sprintf("Order %s is fully paid.", order.ID)); err != nil {
			return "", false, err
		}
	}
	return "", true, nil
}

func (p *Processor) applyCancel(ctx context.Context, tx *gorm.DB, order *models.Order, decoded decodedEvent) (string, bool, error) {
	if order.PaidAmount.IsPositive() {
		return "cannot cancel an order with captured funds", false, nil
	}
	if err := p.inventory.Release(ctx, tx, order); err != nil {
		return "", false, err
	}
	order.Status = enums.OrderStatusCancelled
	if err := p.notify(ctx, tx, order.ID, "Order cancelled",
		fmt.Sprintf("Order %s payment was canceled; reserved stock released.", order.ID)); err != nil {
		return "", false, err
	}
	return "", true, nil
}

func (p *Processor) applyRefund(ctx context.Context, tx *gorm.DB, order *models.Order, decoded decodedEvent) (string, bool, error) {
	amount, txnID, err := refundAmount(order, decoded.Payload)
	if err != nil {
		return err.Error(), false, nil
	}
	if !amount.IsPositive() {
		return "refund amount must be positive", false, nil
	}
	if amount.GreaterThan(order.PaidAmount) {
		return "refund exceeds paid amount", false, nil
	}

	order.PaidAmount = order.PaidAmount.Sub(amount)
	full := order.PaidAmount.IsZero()
	if full {
		order.PaymentStatus = enums.PaymentStatusRefunded
		if err := p.inventory.Release(ctx, tx, order); err != nil {
			return "", false, err
		}
	} else {
		order.PaymentStatus = enums.PaymentStatusPartial
	}

	if err := p.ledger.InsertTx(tx, &models.PaymentLedgerEntry{
		ID:            uuid.New(),
		OrderID:       order.ID,
		Gateway:       decoded.Gateway,
		Type:          enums.LedgerEntryRefund,
		Amount:        amount.Neg(),
		Currency:      order.Currency,
		TransactionID: txnID,
		EventID:       decoded.NaturalKey,
	}); err != nil {
		return "", false, err
	}

	if full {
		if err := p.notify(ctx, tx, order.ID, "Order refunded",
			fmt.Sprintf("Order %s was fully refunded.", order.ID)); err != nil {
			return "", false, err
		}
	}
	return "", true, nil
}

// applyDispute records the chargeback for manual review without touching
// settlement state.
func (p *Processor) applyDispute(ctx context.Context, tx *gorm.DB, order *models.Order, decoded decodedEvent) (string, bool, error) {
	payload, ok := decoded.Payload.(payloads.CardDisputeEvent)
	if !ok {
		return "dispute payload malformed", false, nil
	}
	message := fmt.Sprintf("Order %s charge %s is disputed", order.ID, payload.DisputeID)
	if payload.Reason != "" {
		message = fmt.Sprintf("%s (%s)", message, payload.Reason)
	}
	if err := p.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderNotification,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Data: payloads.OrderNotificationEvent{
			OrderID: order.ID,
			Type:    enums.NotificationTypePipeline,
			Title:   "Chargeback opened",
			Message: message + ".",
		},
		Version: 1,
	}); err != nil {
		return "", false, err
	}
	return "", false, nil
}

func (p *Processor) notify(ctx context.Context, tx *gorm.DB, orderID, title, message string) error {
	return p.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderNotification,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Data: payloads.OrderNotificationEvent{
			OrderID: orderID,
			Type:    enums.NotificationTypeOrder,
			Title:   title,
			Message: message,
		},
		Version: 1,
	})
}

func (p *Processor) recordEvent(tx *gorm.DB, eventType enums.QueueEventType, decoded decodedEvent, orderID *string, outcome enums.WebhookOutcome, reason string) error {
	raw, err := json.Marshal(decoded.Payload)
	if err != nil {
		raw = json.RawMessage(`{}`)
	}
	event := &models.WebhookEvent{
		ID:         uuid.New(),
		Gateway:    decoded.Gateway,
		EventType:  string(eventType),
		NaturalKey: decoded.NaturalKey,
		OrderID:    orderID,
		Payload:    raw,
		Outcome:    outcome,
	}
	if reason != "" {
		event.Error = &reason
	}
	insertErr := p.webhookLog.InsertTx(tx, event)
	if errors.Is(insertErr, webhooklog.ErrAlreadyRecorded) {
		// A concurrent delivery already claimed this key as processed.
		// Roll the whole transaction back; the retry resolves as a
		// duplicate instead of committing the mutation a second time.
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, insertErr, "event log conflict")
	}
	return insertErr
}

// settledAmount extracts the confirmed amount in major units plus the
// gateway transaction reference. Conversion from gateway representation
// happens only here and in refundAmount.
func settledAmount(order *models.Order, payload any) (decimal.Decimal, string, error) {
	switch p := payload.(type) {
	case payloads.CardPaymentEvent:
		return money.FromMinorUnits(p.AmountMinor, order.Currency), p.TransactionID, nil
	case payloads.RedirectPaymentEvent:
		amount, err := money.ParseMajor(p.Amount)
		if err != nil {
			return decimal.Zero, "", fmt.Errorf("parse validated amount: %w", err)
		}
		txnID := p.BankTranID
		if txnID == "" {
			txnID = p.ValID
		}
		return amount, txnID, nil
	default:
		return decimal.Zero, "", fmt.Errorf("payload %T carries no settled amount", payload)
	}
}

// failureReason extracts the human-readable decline reason carried by a
// failed payment event.
func failureReason(payload any) string {
	switch p := payload.(type) {
	case payloads.CardPaymentEvent:
		if p.FailureReason != "" {
			return p.FailureReason
		}
	case payloads.RedirectPaymentEvent:
		if p.Status != "" {
			return "gateway status " + p.Status
		}
	}
	return "payment failed"
}

func refundAmount(order *models.Order, payload any) (decimal.Decimal, string, error) {
	switch p := payload.(type) {
	case payloads.CardRefundEvent:
		return money.FromMinorUnits(p.AmountMinor, order.Currency), p.ChargeID, nil
	case payloads.RedirectPaymentEvent:
		amount, err := money.ParseMajor(p.Amount)
		if err != nil {
			return decimal.Zero, "", fmt.Errorf("parse refund amount: %w", err)
		}
		txnID := p.BankTranID
		if txnID == "" {
			txnID = p.ValID
		}
		return amount, txnID, nil
	default:
		return decimal.Zero, "", fmt.Errorf("payload %T carries no refund amount", payload)
	}
}
