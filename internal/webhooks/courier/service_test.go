package courierwebhook

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bonikcommerce/bonik-backend/internal/webhooklog"
	"github.com/bonikcommerce/bonik-backend/pkg/db/models"
	"github.com/bonikcommerce/bonik-backend/pkg/enums"
	"github.com/bonikcommerce/bonik-backend/pkg/logger"
	"github.com/bonikcommerce/bonik-backend/pkg/outbox"
	"github.com/bonikcommerce/bonik-backend/pkg/outbox/payloads"
)

type stubShipments struct {
	shipment   *models.Shipment
	findErr    error
	updated    []enums.ShipmentStatus
	updateErr  error
	rawApplied []string
}

func (s *stubShipments) FindByConsignmentID(_ context.Context, _ string) (*models.Shipment, error) {
	return s.shipment, s.findErr
}

func (s *stubShipments) UpdateTrackingStatusTx(_ *gorm.DB, _ *models.Shipment, status enums.ShipmentStatus, rawStatus string) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated = append(s.updated, status)
	s.rawApplied = append(s.rawApplied, rawStatus)
	return nil
}

type stubWebhookLog struct {
	inserted []models.WebhookEvent
	err      error
}

func (s *stubWebhookLog) InsertTx(_ *gorm.DB, event *models.WebhookEvent) error {
	if s.err != nil {
		return s.err
	}
	s.inserted = append(s.inserted, *event)
	return nil
}

type stubTxRunner struct{}

func (s *stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubEmitter struct {
	emitted []outbox.DomainEvent
}

func (s *stubEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.emitted = append(s.emitted, event)
	return nil
}

func newTestService(t *testing.T, ships *stubShipments, log *stubWebhookLog, emitter *stubEmitter) *Service {
	t.Helper()
	service, err := NewService(ServiceParams{
		Shipments:         ships,
		WebhookLog:        log,
		Outbox:            emitter,
		TransactionRunner: &stubTxRunner{},
		Logger:            logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return service
}

func trackedShipment() *models.Shipment {
	return &models.Shipment{
		ID:            uuid.New(),
		OrderID:       "T6UWMI",
		Courier:       enums.GatewayPathao,
		ConsignmentID: "DT-100",
		Status:        enums.ShipmentStatusPending,
	}
}

func TestHandleStatusUpdate_AppliesAndNotifies(t *testing.T) {
	ships := &stubShipments{shipment: trackedShipment()}
	log := &stubWebhookLog{}
	emitter := &stubEmitter{}
	service := newTestService(t, ships, log, emitter)

	outcome, err := service.HandleStatusUpdate(context.Background(), StatusUpdate{
		Courier:       enums.GatewayPathao,
		ConsignmentID: "DT-100",
		RawStatus:     "delivered",
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, outcome)

	require.Equal(t, []enums.ShipmentStatus{enums.ShipmentStatusDelivered}, ships.updated)

	require.Len(t, log.inserted, 1)
	require.Equal(t, "DT-100:delivered", log.inserted[0].NaturalKey)
	require.Equal(t, enums.WebhookOutcomeProcessed, log.inserted[0].Outcome)

	require.Len(t, emitter.emitted, 1)
	require.Equal(t, enums.EventOrderNotification, emitter.emitted[0].EventType)
	payload := emitter.emitted[0].Data.(payloads.OrderNotificationEvent)
	require.Equal(t, "T6UWMI", payload.OrderID)
}

func TestHandleStatusUpdate_UnknownConsignmentAcks(t *testing.T) {
	ships := &stubShipments{}
	log := &stubWebhookLog{}
	emitter := &stubEmitter{}
	service := newTestService(t, ships, log, emitter)

	outcome, err := service.HandleStatusUpdate(context.Background(), StatusUpdate{
		Courier:       enums.GatewaySteadfast,
		ConsignmentID: "missing",
		RawStatus:     "delivered",
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeUnknownShipment, outcome)
	require.Empty(t, log.inserted)
	require.Empty(t, emitter.emitted)
}

func TestHandleStatusUpdate_UnrecognizedStatusHolds(t *testing.T) {
	ships := &stubShipments{shipment: trackedShipment()}
	service := newTestService(t, ships, &stubWebhookLog{}, &stubEmitter{})

	outcome, err := service.HandleStatusUpdate(context.Background(), StatusUpdate{
		Courier:       enums.GatewayPathao,
		ConsignmentID: "DT-100",
		RawStatus:     "teleported",
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, outcome)
	require.Equal(t, []enums.ShipmentStatus{enums.ShipmentStatusHold}, ships.updated)
}

func TestHandleStatusUpdate_DuplicateShortCircuits(t *testing.T) {
	ships := &stubShipments{shipment: trackedShipment()}
	log := &stubWebhookLog{err: webhooklog.ErrAlreadyRecorded}
	emitter := &stubEmitter{}
	service := newTestService(t, ships, log, emitter)

	outcome, err := service.HandleStatusUpdate(context.Background(), StatusUpdate{
		Courier:       enums.GatewayPathao,
		ConsignmentID: "DT-100",
		RawStatus:     "delivered",
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeDuplicate, outcome)
	require.Empty(t, ships.updated)
	require.Empty(t, emitter.emitted)
}

func TestHandleStatusUpdate_InfraErrorPropagates(t *testing.T) {
	ships := &stubShipments{shipment: trackedShipment(), updateErr: errors.New("db down")}
	service := newTestService(t, ships, &stubWebhookLog{}, &stubEmitter{})

	_, err := service.HandleStatusUpdate(context.Background(), StatusUpdate{
		Courier:       enums.GatewayPathao,
		ConsignmentID: "DT-100",
		RawStatus:     "picked",
	})
	require.Error(t, err)
}

func TestHandleStatusUpdate_MissingFieldsRejected(t *testing.T) {
	service := newTestService(t, &stubShipments{}, &stubWebhookLog{}, &stubEmitter{})

	_, err := service.HandleStatusUpdate(context.Background(), StatusUpdate{Courier: enums.GatewayPathao})
	require.Error(t, err)
}
