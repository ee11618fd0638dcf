package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bonikcommerce/bonik-backend/pkg/db/models"
	"github.com/bonikcommerce/bonik-backend/pkg/enums"
)

func setupNotificationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	table := `
CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  order_id TEXT,
  read_at DATETIME,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(table).Error)
	return db
}

func alert(orderID string, createdAt time.Time) *models.Notification {
	return &models.Notification{
		ID:        uuid.New(),
		Type:      enums.NotificationTypeOrder,
		Title:     "Order update",
		Message:   "Order " + orderID + " changed.",
		OrderID:   &orderID,
		CreatedAt: createdAt,
	}
}

func TestRepository_ListFiltersByOrderAndUnread(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	first := alert("ORD-NOTIF-1", now.Add(-time.Minute))
	second := alert("ORD-NOTIF-1", now)
	other := alert("ORD-NOTIF-2", now)
	readAt := now
	other.ReadAt = &readAt

	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, other))

	orderID := "ORD-NOTIF-1"
	listed, err := repo.List(ctx, ListParams{OrderID: &orderID})
	require.NoError(t, err)
	require.Len(t, listed, 2)
	require.Equal(t, second.ID, listed[0].ID)
	require.Equal(t, first.ID, listed[1].ID)

	otherID := "ORD-NOTIF-2"
	unread, err := repo.List(ctx, ListParams{OrderID: &otherID, UnreadOnly: true})
	require.NoError(t, err)
	require.Empty(t, unread)
}

func TestRepository_MarkReadOnce(t *testing.T) {
	db := setupNotificationsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	notification := alert("ORD-NOTIF-3", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, notification))

	updated, err := repo.MarkRead(ctx, notification.ID, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, updated)

	again, err := repo.MarkRead(ctx, notification.ID, time.Now().UTC())
	require.NoError(t, err)
	require.False(t, again)

	missing, err := repo.MarkRead(ctx, uuid.New(), time.Now().UTC())
	require.NoError(t, err)
	require.False(t, missing)
}
