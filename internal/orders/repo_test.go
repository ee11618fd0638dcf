package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bonikcommerce/bonik-backend/pkg/db/models"
	"github.com/bonikcommerce/bonik-backend/pkg/enums"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ordersTable := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  customer_email TEXT NOT NULL,
  customer_phone TEXT,
  currency TEXT NOT NULL DEFAULT 'BDT',
  gateway TEXT,
  transaction_id TEXT,
  payment_failure_reason TEXT,
  total_amount TEXT NOT NULL,
  paid_amount TEXT NOT NULL DEFAULT '0',
  payment_status TEXT NOT NULL DEFAULT 'unpaid',
  status TEXT NOT NULL DEFAULT 'pending',
  version INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	lineItems := `
CREATE TABLE IF NOT EXISTS order_line_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  variant_id TEXT NOT NULL,
  name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price TEXT NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(ordersTable).Error)
	require.NoError(t, db.Exec(lineItems).Error)
	return db
}

func newOrder(t *testing.T, db *gorm.DB, id string, total string) *models.Order {
	t.Helper()

	totalAmount, err := decimal.NewFromString(total)
	require.NoError(t, err)
	order := &models.Order{
		ID:            id,
		CustomerEmail: "buyer@example.com",
		Currency:      enums.CurrencyBDT,
		TotalAmount:   totalAmount,
		PaidAmount:    decimal.Zero,
		PaymentStatus: enums.PaymentStatusUnpaid,
		Status:        enums.OrderStatusPending,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestFindByID_PreloadsItems(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := newOrder(t, db, "ORD-FIND-1", "1000.00")
	item := models.OrderLineItem{
		ID:        uuid.New(),
		OrderID:   order.ID,
		VariantID: uuid.New(),
		Name:      "Widget",
		Quantity:  2,
		UnitPrice: decimal.RequireFromString("500.00"),
	}
	require.NoError(t, db.Create(&item).Error)

	found, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Len(t, found.Items, 1)
	require.Equal(t, "Widget", found.Items[0].Name)
}

func TestFindByID_MissingReturnsNil(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	found, err := repo.FindByID(context.Background(), "ORD-NOPE")
	require.NoError(t, err)
	require.Nil(t, found)
}

func TestUpdateWithVersion_BumpsVersion(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := newOrder(t, db, "ORD-VER-1", "5208.00")
	order.PaidAmount = decimal.RequireFromString("5208.00")
	order.PaymentStatus = enums.PaymentStatusPaid

	require.NoError(t, repo.UpdateWithVersionTx(db, order, 0))
	require.Equal(t, 1, order.Version)

	reloaded, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PaymentStatusPaid, reloaded.PaymentStatus)
	require.True(t, reloaded.PaidAmount.Equal(decimal.RequireFromString("5208.00")))
	require.Equal(t, 1, reloaded.Version)
}

func TestUpdateWithVersion_StaleVersionConflicts(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	order := newOrder(t, db, "ORD-VER-2", "1000.00")

	// First writer wins.
	require.NoError(t, repo.UpdateWithVersionTx(db, order, 0))

	// Second writer still holds version 0.
	stale := *order
	err := repo.UpdateWithVersionTx(db, &stale, 0)
	require.ErrorIs(t, err, ErrVersionConflict)
}
