package courierwebhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bonikcommerce/bonik-backend/internal/shipments"
	"github.com/bonikcommerce/bonik-backend/internal/webhooklog"
	"github.com/bonikcommerce/bonik-backend/pkg/db/models"
	"github.com/bonikcommerce/bonik-backend/pkg/enums"
	pkgerrors "github.com/bonikcommerce/bonik-backend/pkg/errors"
	"github.com/bonikcommerce/bonik-backend/pkg/logger"
	"github.com/bonikcommerce/bonik-backend/pkg/outbox"
	"github.com/bonikcommerce/bonik-backend/pkg/outbox/payloads"
)

// Outcome tells the caller how a courier delivery resolved. All outcomes
// acknowledge with 200; couriers cannot fix an unknown consignment by
// retrying.
type Outcome int

const (
	OutcomeApplied Outcome = iota
	OutcomeUnknownShipment
	OutcomeDuplicate
)

// StatusUpdate is the normalized form of a courier callback body.
type StatusUpdate struct {
	Courier       enums.Gateway
	ConsignmentID string
	RawStatus     string
}

// NaturalKey identifies one courier delivery for idempotency purposes.
func (u StatusUpdate) NaturalKey() string {
	return u.ConsignmentID + ":" + u.RawStatus
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type shipmentRepository interface {
	FindByConsignmentID(ctx context.Context, consignmentID string) (*models.Shipment, error)
	UpdateTrackingStatusTx(tx *gorm.DB, shipment *models.Shipment, status enums.ShipmentStatus, rawStatus string) error
}

type webhookLog interface {
	InsertTx(tx *gorm.DB, event *models.WebhookEvent) error
}

type ServiceParams struct {
	Shipments         shipmentRepository
	WebhookLog        webhookLog
	Outbox            eventEmitter
	TransactionRunner txRunner
	Logger            *logger.Logger
}

// Service applies courier tracking callbacks to shipments. Updates are
// synchronous; only the customer-facing notification goes through the queue.
type Service struct {
	shipments  shipmentRepository
	webhookLog webhookLog
	outbox     eventEmitter
	txRunner   txRunner
	logg       *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Shipments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "shipments repository required")
	}
	if params.WebhookLog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "webhook log required")
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
	return &Service{
		shipments:  params.Shipments,
		webhookLog: params.WebhookLog,
		outbox:     params.Outbox,
		txRunner:   params.TransactionRunner,
		logg:       params.Logger,
	}, nil
}

// HandleStatusUpdate resolves the shipment, normalizes the courier status
// and records the transition plus an order notification in one transaction.
func (s *Service) HandleStatusUpdate(ctx context.Context, update StatusUpdate) (Outcome, error) {
	if update.ConsignmentID == "" || update.RawStatus == "" {
		return OutcomeUnknownShipment, pkgerrors.New(pkgerrors.CodeValidation, "consignment id and status required")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"courier":        string(update.Courier),
		"consignment_id": update.ConsignmentID,
		"raw_status":     update.RawStatus,
	})

	shipment, err := s.shipments.FindByConsignmentID(ctx, update.ConsignmentID)
	if err != nil {
		return OutcomeUnknownShipment, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
	}
	if shipment == nil {
		s.logg.Warn(logCtx, "courier update references unknown consignment")
		return OutcomeUnknownShipment, nil
	}

	status, recognized := shipments.NormalizeStatus(update.Courier, update.RawStatus)
	if !recognized {
		s.logg.Warn(logCtx, "unrecognized courier status, holding shipment")
	}

	orderID := shipment.OrderID
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		logEntry := &models.WebhookEvent{
			ID:         uuid.New(),
			Gateway:    update.Courier,
			EventType:  "shipment.status",
			NaturalKey: update.NaturalKey(),
			OrderID:    &orderID,
			Payload:    courierPayloadJSON(update),
			Outcome:    enums.WebhookOutcomeProcessed,
		}
		if err := s.webhookLog.InsertTx(tx, logEntry); err != nil {
			return err
		}

		if err := s.shipments.UpdateTrackingStatusTx(tx, shipment, status, update.RawStatus); err != nil {
			return err
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderNotification,
			AggregateType: enums.AggregateShipment,
			AggregateID:   update.ConsignmentID,
			Data: payloads.OrderNotificationEvent{
				OrderID: orderID,
				Type:    enums.NotificationTypeOrder,
				Title:   "Shipment update",
				Message: fmt.Sprintf("Order %s shipment is now %s.", orderID, status),
			},
			Version: 1,
		})
	})
	if errors.Is(err, webhooklog.ErrAlreadyRecorded) {
		s.logg.Info(logCtx, "courier update already applied")
		return OutcomeDuplicate, nil
	}
	if err != nil {
		return OutcomeUnknownShipment, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply courier update")
	}

	s.logg.Info(s.logg.WithField(logCtx, "status", string(status)), "shipment status updated")
	return OutcomeApplied, nil
}

func courierPayloadJSON(update StatusUpdate) json.RawMessage {
	raw, err := json.Marshal(map[string]string{
		"courier":        string(update.Courier),
		"consignment_id": update.ConsignmentID,
		"status":         update.RawStatus,
	})
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return raw
}
