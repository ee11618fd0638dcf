package webhooklog

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bonikcommerce/bonik-backend/pkg/db/models"
	"github.com/bonikcommerce/bonik-backend/pkg/enums"
)

func setupWebhookLogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	table := `
CREATE TABLE IF NOT EXISTS webhook_events (
  id TEXT PRIMARY KEY,
  gateway TEXT NOT NULL,
  event_type TEXT NOT NULL,
  natural_key TEXT NOT NULL,
  order_id TEXT,
  payload TEXT,
  outcome TEXT NOT NULL,
  error TEXT,
  created_at DATETIME
);`
	index := `
CREATE UNIQUE INDEX IF NOT EXISTS ux_webhook_events_processed_key
  ON webhook_events(natural_key) WHERE outcome = 'processed';`
	require.NoError(t, db.Exec(table).Error)
	require.NoError(t, db.Exec(index).Error)
	return db
}

func record(naturalKey string, outcome enums.WebhookOutcome) *models.WebhookEvent {
	orderID := "ORD-LOG-1"
	return &models.WebhookEvent{
		ID:         uuid.New(),
		Gateway:    enums.GatewayStripe,
		EventType:  "payment_intent.succeeded",
		NaturalKey: naturalKey,
		OrderID:    &orderID,
		Payload:    json.RawMessage(`{}`),
		Outcome:    outcome,
	}
}

func TestInsertTx_DuplicateProcessedKey(t *testing.T) {
	db := setupWebhookLogTestDB(t)
	repo := NewRepository(db)

	require.NoError(t, repo.InsertTx(db, record("evt_dup_1", enums.WebhookOutcomeProcessed)))

	err := repo.InsertTx(db, record("evt_dup_1", enums.WebhookOutcomeProcessed))
	require.ErrorIs(t, err, ErrAlreadyRecorded)
}

func TestInsertTx_FailedRowIsSuperseded(t *testing.T) {
	db := setupWebhookLogTestDB(t)
	repo := NewRepository(db)

	// A domain rejection does not claim the key.
	require.NoError(t, repo.InsertTx(db, record("evt_retry_1", enums.WebhookOutcomeFailed)))
	require.NoError(t, repo.InsertTx(db, record("evt_retry_1", enums.WebhookOutcomeFailed)))

	// The retry that finally applies records processed alongside them.
	require.NoError(t, repo.InsertTx(db, record("evt_retry_1", enums.WebhookOutcomeProcessed)))

	processed, err := repo.HasProcessedTx(db, "evt_retry_1")
	require.NoError(t, err)
	require.True(t, processed)

	err = repo.InsertTx(db, record("evt_retry_1", enums.WebhookOutcomeProcessed))
	require.ErrorIs(t, err, ErrAlreadyRecorded)
}

func TestHasProcessedTx(t *testing.T) {
	db := setupWebhookLogTestDB(t)
	repo := NewRepository(db)

	require.NoError(t, repo.InsertTx(db, record("evt_proc_1", enums.WebhookOutcomeProcessed)))
	require.NoError(t, repo.InsertTx(db, record("evt_fail_1", enums.WebhookOutcomeFailed)))

	processed, err := repo.HasProcessedTx(db, "evt_proc_1")
	require.NoError(t, err)
	require.True(t, processed)

	// A failed record does not block reprocessing.
	processed, err = repo.HasProcessedTx(db, "evt_fail_1")
	require.NoError(t, err)
	require.False(t, processed)

	processed, err = repo.HasProcessedTx(db, "evt_unknown")
	require.NoError(t, err)
	require.False(t, processed)
}

func TestFindByNaturalKeyAndListByOrder(t *testing.T) {
	db := setupWebhookLogTestDB(t)
	repo := NewRepository(db)

	require.NoError(t, repo.InsertTx(db, record("evt_find_1", enums.WebhookOutcomeProcessed)))

	found, err := repo.FindByNaturalKey(context.Background(), "evt_find_1")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, enums.GatewayStripe, found.Gateway)

	missing, err := repo.FindByNaturalKey(context.Background(), "evt_missing")
	require.NoError(t, err)
	require.Nil(t, missing)

	rows, err := repo.ListByOrder(context.Background(), "ORD-LOG-1", 10)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
}
