package sslcommerzwebhook

import (
	"context"

	"gorm.io/gorm"

	"github.com/bonikcommerce/bonik-backend/pkg/enums"
	pkgerrors "github.com/bonikcommerce/bonik-backend/pkg/errors"
	"github.com/bonikcommerce/bonik-backend/pkg/logger"
	"github.com/bonikcommerce/bonik-backend/pkg/outbox"
	"github.com/bonikcommerce/bonik-backend/pkg/outbox/payloads"
	"github.com/bonikcommerce/bonik-backend/pkg/sslcommerz"
)

// Outcome tells the caller whether the delivery resolved. Pending deliveries
// must not be marked idempotent so the gateway retries them.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeEnqueued
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type validator interface {
	Validate(ctx context.Context, valID string) (*sslcommerz.ValidationResponse, error)
}

type ServiceParams struct {
	Validator         validator
	Outbox            eventEmitter
	TransactionRunner txRunner
	Logger            *logger.Logger
}

// Service resolves SSLCommerz IPN deliveries against the validation API and
// enqueues the settled outcome. The IPN body itself is never trusted.
type Service struct {
	validator validator
	outbox    eventEmitter
	txRunner  txRunner
	logg      *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Validator == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "sslcommerz validator required")
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
		validator: params.Validator,
		outbox:    params.Outbox,
		txRunner:  params.TransactionRunner,
		logg:      params.Logger,
	}, nil
}

// HandleIPN validates the delivery and enqueues the fact it settles to.
// OutcomePending means no action was taken and the gateway should redeliver.
func (s *Service) HandleIPN(ctx context.Context, tranID, valID string) (Outcome, error) {
	if tranID == "" || valID == "" {
		return OutcomePending, pkgerrors.New(pkgerrors.CodeValidation, "tran_id and val_id required")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"tran_id": tranID,
		"val_id":  valID,
	})

	resp, err := s.validator.Validate(ctx, valID)
	if err != nil {
		// Validation API faults are transient. The key stays unset and the
		// gateway redelivers.
		s.logg.Error(logCtx, "sslcommerz validation failed", err)
		return OutcomePending, nil
	}

	var eventType enums.QueueEventType
	switch {
	case resp.Settled():
		eventType = enums.EventSSLCommerzConfirmed
	case resp.Status == sslcommerz.StatusFailed:
		eventType = enums.EventSSLCommerzFailed
	case resp.Status == sslcommerz.StatusCancelled:
		eventType = enums.EventSSLCommerzCanceled
	default:
		s.logg.Info(s.logg.WithField(logCtx, "status", resp.Status), "sslcommerz validation not yet resolved")
		return OutcomePending, nil
	}

	orderID := resp.TranID
	if orderID == "" {
		orderID = tranID
	}

	payload := payloads.RedirectPaymentEvent{
		OrderID:    orderID,
		EventID:    tranID + ":" + valID,
		TranID:     tranID,
		ValID:      valID,
		Amount:     resp.Amount,
		Currency:   resp.Currency,
		Status:     resp.Status,
		CardType:   resp.CardType,
		BankTranID: resp.BankTranID,
		RiskLevel:  resp.RiskLevel,
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Data:          payload,
			Version:       1,
		})
	})
	if err != nil {
		return OutcomePending, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "enqueue sslcommerz event")
	}

	s.logg.Info(s.logg.WithField(logCtx, "event_type", string(eventType)), "sslcommerz event enqueued")
	return OutcomeEnqueued, nil
}
