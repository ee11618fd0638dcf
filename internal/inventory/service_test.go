package inventory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bonikcommerce/bonik-backend/pkg/db/models"
	"github.com/bonikcommerce/bonik-backend/pkg/enums"
)

func setupInventoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	variants := `
CREATE TABLE IF NOT EXISTS product_variants (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  sku TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  price TEXT NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0,
  reserved INTEGER NOT NULL DEFAULT 0,
  low_stock_threshold INTEGER NOT NULL DEFAULT 0,
  version INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	movements := `
CREATE TABLE IF NOT EXISTS inventory_movements (
  id TEXT PRIMARY KEY,
  variant_id TEXT NOT NULL,
  order_id TEXT,
  type TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  stock_before INTEGER NOT NULL,
  stock_after INTEGER NOT NULL,
  reference TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(variants).Error)
	require.NoError(t, db.Exec(movements).Error)
	return db
}

type directTxRunner struct {
	db *gorm.DB
}

func (r directTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(r.db.WithContext(ctx))
}

type capturedAlerts struct {
	mu    sync.Mutex
	names []string
	fns   []func(ctx context.Context) error
}

func (c *capturedAlerts) Go(name string, fn func(ctx context.Context) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = append(c.names, name)
	c.fns = append(c.fns, fn)
	return nil
}

type capturedNotifications struct {
	mu   sync.Mutex
	rows []*models.Notification
}

func (c *capturedNotifications) Create(_ context.Context, n *models.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = append(c.rows, n)
	return nil
}

func newVariant(t *testing.T, db *gorm.DB, sku string, stock int) *models.ProductVariant {
	t.Helper()
	variant := &models.ProductVariant{
		ID:        uuid.New(),
		ProductID: uuid.New(),
		SKU:       sku,
		Name:      "Test " + sku,
		Price:     decimal.RequireFromString("99.00"),
		Stock:     stock,
	}
	require.NoError(t, db.Create(variant).Error)
	return variant
}

func newInventoryService(t *testing.T, db *gorm.DB, alerts *capturedAlerts, notes *capturedNotifications) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:              NewRepository(db),
		TxRunner:          directTxRunner{db: db},
		Alerts:            alerts,
		Notifications:     notes,
		LowStockThreshold: 5,
	})
	require.NoError(t, err)
	return svc
}

func TestAdjust_RecordsMovementAndUpdatesStock(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc := newInventoryService(t, db, nil, nil)

	variant := newVariant(t, db, "SKU-ADJ-1", 10)

	movement, err := svc.Adjust(context.Background(), variant.ID, -3, enums.MovementSold, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 10, movement.StockBefore)
	require.Equal(t, 7, movement.StockAfter)

	var reloaded models.ProductVariant
	require.NoError(t, db.First(&reloaded, "id = ?", variant.ID).Error)
	require.Equal(t, 7, reloaded.Stock)
	require.Equal(t, 1, reloaded.Version)
}

func TestAdjust_ClampsAtZero(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc := newInventoryService(t, db, nil, nil)

	variant := newVariant(t, db, "SKU-CLAMP-1", 5)

	movement, err := svc.Adjust(context.Background(), variant.ID, -1000000, enums.MovementAdjusted, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 0, movement.StockAfter)

	var reloaded models.ProductVariant
	require.NoError(t, db.First(&reloaded, "id = ?", variant.ID).Error)
	require.Equal(t, 0, reloaded.Stock)
}

func TestAdjust_UnknownVariant(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc := newInventoryService(t, db, nil, nil)

	_, err := svc.Adjust(context.Background(), uuid.New(), 1, enums.MovementRestocked, nil, nil)
	require.Error(t, err)
}

func TestAdjust_LowStockTransitionFiresAlertOnce(t *testing.T) {
	db := setupInventoryTestDB(t)
	alerts := &capturedAlerts{}
	notes := &capturedNotifications{}
	svc := newInventoryService(t, db, alerts, notes)

	variant := newVariant(t, db, "SKU-LOW-1", 8)

	// 8 -> 4 crosses the threshold of 5.
	_, err := svc.Adjust(context.Background(), variant.ID, -4, enums.MovementSold, nil, nil)
	require.NoError(t, err)
	require.Len(t, alerts.fns, 1)

	// 4 -> 3 stays below threshold, no second alert.
	_, err = svc.Adjust(context.Background(), variant.ID, -1, enums.MovementSold, nil, nil)
	require.NoError(t, err)
	require.Len(t, alerts.fns, 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, alerts.fns[0](ctx))
	require.Len(t, notes.rows, 1)
	require.Equal(t, enums.NotificationTypeLowStock, notes.rows[0].Type)
}

func TestAdjust_VariantThresholdOverridesGlobal(t *testing.T) {
	db := setupInventoryTestDB(t)
	alerts := &capturedAlerts{}
	notes := &capturedNotifications{}
	svc := newInventoryService(t, db, alerts, notes)

	variant := newVariant(t, db, "SKU-OVR-1", 12)
	require.NoError(t, db.Model(&models.ProductVariant{}).
		Where("id = ?", variant.ID).
		Update("low_stock_threshold", 10).Error)

	// 12 -> 9 is above the global threshold of 5 but crosses the
	// variant's own threshold of 10.
	_, err := svc.Adjust(context.Background(), variant.ID, -3, enums.MovementSold, nil, nil)
	require.NoError(t, err)
	require.Len(t, alerts.fns, 1)
}

func TestRelease_RestoresLineItemsOnce(t *testing.T) {
	db := setupInventoryTestDB(t)
	svc := newInventoryService(t, db, nil, nil)

	variant := newVariant(t, db, "SKU-REL-1", 3)
	order := &models.Order{
		ID: "ORD-REL-1",
		Items: []models.OrderLineItem{
			{ID: uuid.New(), OrderID: "ORD-REL-1", VariantID: variant.ID, Name: "Test", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
		},
	}

	require.NoError(t, svc.Release(context.Background(), db, order))

	var reloaded models.ProductVariant
	require.NoError(t, db.First(&reloaded, "id = ?", variant.ID).Error)
	require.Equal(t, 5, reloaded.Stock)

	// Second release is a no-op.
	require.NoError(t, svc.Release(context.Background(), db, order))
	require.NoError(t, db.First(&reloaded, "id = ?", variant.ID).Error)
	require.Equal(t, 5, reloaded.Stock)
}
