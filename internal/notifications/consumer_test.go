package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/bonikcommerce/bonik-backend/pkg/db/models"
	"github.com/bonikcommerce/bonik-backend/pkg/enums"
	"github.com/bonikcommerce/bonik-backend/pkg/logger"
	"github.com/bonikcommerce/bonik-backend/pkg/outbox"
	"github.com/bonikcommerce/bonik-backend/pkg/outbox/idempotency"
	"github.com/bonikcommerce/bonik-backend/pkg/outbox/payloads"
)

type fakeNotificationRepo struct {
	created   []models.Notification
	createErr error
}

func (f *fakeNotificationRepo) Create(_ context.Context, notification *models.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, *notification)
	return nil
}

type fakeGuardStore struct {
	existing    map[string]bool
	existsError error
}

func (f *fakeGuardStore) Exists(_ context.Context, key string) (bool, error) {
	if f.existsError != nil {
		return false, f.existsError
	}
	return f.existing[key], nil
}

func (f *fakeGuardStore) Set(_ context.Context, key string, _ any, _ time.Duration) error {
	if f.existing == nil {
		f.existing = make(map[string]bool)
	}
	f.existing[key] = true
	return nil
}

func (f *fakeGuardStore) IdempotencyKey(scope, id string) string {
	return "bk:idempotency:" + scope + ":" + id
}

func (f *fakeGuardStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.existing, key)
	}
	return nil
}

func newTestConsumer(t *testing.T, repo repository, store *fakeGuardStore) *Consumer {
	t.Helper()
	guard, err := idempotency.NewGuard(store, time.Hour)
	require.NoError(t, err)
	return &Consumer{
		repo:  repo,
		guard: guard,
		logg:  logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	}
}

func notificationMessage(t *testing.T, eventID string, payload payloads.OrderNotificationEvent) *pubsub.Message {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
	raw, err := json.Marshal(envelope)
	require.NoError(t, err)
	return &pubsub.Message{
		ID:         "msg-" + eventID,
		Data:       raw,
		Attributes: map[string]string{"event_type": string(enums.EventOrderNotification)},
	}
}

func TestConsumerProcess_RecordsNotification(t *testing.T) {
	repo := &fakeNotificationRepo{}
	store := &fakeGuardStore{}
	consumer := newTestConsumer(t, repo, store)

	eventID := uuid.NewString()
	msg := notificationMessage(t, eventID, payloads.OrderNotificationEvent{
		OrderID: "T6UWMI",
		Type:    enums.NotificationTypeOrder,
		Title:   "Payment received",
		Message: "Order T6UWMI is fully paid.",
	})

	result := consumer.process(context.Background(), msg)
	require.True(t, result.ack)
	require.False(t, result.nack)
	require.Len(t, repo.created, 1)
	require.Equal(t, "Payment received", repo.created[0].Title)
	require.NotNil(t, repo.created[0].OrderID)
	require.Equal(t, "T6UWMI", *repo.created[0].OrderID)
	require.True(t, store.existing["bk:idempotency:evt:processed:order-notifications:"+eventID])
}

func TestConsumerProcess_SkipsSeenEvent(t *testing.T) {
	repo := &fakeNotificationRepo{}
	eventID := uuid.NewString()
	store := &fakeGuardStore{existing: map[string]bool{
		"bk:idempotency:evt:processed:order-notifications:" + eventID: true,
	}}
	consumer := newTestConsumer(t, repo, store)

	msg := notificationMessage(t, eventID, payloads.OrderNotificationEvent{OrderID: "T6UWMI"})

	result := consumer.process(context.Background(), msg)
	require.True(t, result.ack)
	require.Empty(t, repo.created)
}

func TestConsumerProcess_NacksOnRepoFailure(t *testing.T) {
	repo := &fakeNotificationRepo{createErr: errors.New("db down")}
	store := &fakeGuardStore{}
	consumer := newTestConsumer(t, repo, store)

	eventID := uuid.NewString()
	msg := notificationMessage(t, eventID, payloads.OrderNotificationEvent{OrderID: "T6UWMI"})

	result := consumer.process(context.Background(), msg)
	require.True(t, result.nack)
	// An event is only marked processed after the row commits.
	require.False(t, store.existing["bk:idempotency:evt:processed:order-notifications:"+eventID])
}

func TestConsumerProcess_NacksOnGuardFailure(t *testing.T) {
	repo := &fakeNotificationRepo{}
	store := &fakeGuardStore{existsError: errors.New("redis down")}
	consumer := newTestConsumer(t, repo, store)

	msg := notificationMessage(t, uuid.NewString(), payloads.OrderNotificationEvent{OrderID: "T6UWMI"})

	result := consumer.process(context.Background(), msg)
	require.True(t, result.nack)
	require.Empty(t, repo.created)
}

func TestConsumerProcess_AcksForeignEventType(t *testing.T) {
	repo := &fakeNotificationRepo{}
	consumer := newTestConsumer(t, repo, &fakeGuardStore{})

	msg := &pubsub.Message{
		ID:         "msg-foreign",
		Data:       []byte(`{}`),
		Attributes: map[string]string{"event_type": string(enums.EventStripeConfirmed)},
	}

	result := consumer.process(context.Background(), msg)
	require.True(t, result.ack)
	require.Empty(t, repo.created)
}

func TestConsumerProcess_AcksMalformedEnvelope(t *testing.T) {
	repo := &fakeNotificationRepo{}
	consumer := newTestConsumer(t, repo, &fakeGuardStore{})

	msg := &pubsub.Message{
		ID:         "msg-bad",
		Data:       []byte("{not json"),
		Attributes: map[string]string{"event_type": string(enums.EventOrderNotification)},
	}

	result := consumer.process(context.Background(), msg)
	require.True(t, result.ack)
	require.Empty(t, repo.created)
}
