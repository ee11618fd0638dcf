package payments

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bonikcommerce/bonik-backend/internal/inventory"
	"github.com/bonikcommerce/bonik-backend/internal/ledger"
	"github.com/bonikcommerce/bonik-backend/internal/orders"
	"github.com/bonikcommerce/bonik-backend/internal/webhooklog"
	"github.com/bonikcommerce/bonik-backend/pkg/db/models"
	"github.com/bonikcommerce/bonik-backend/pkg/enums"
	"github.com/bonikcommerce/bonik-backend/pkg/logger"
	"github.com/bonikcommerce/bonik-backend/pkg/outbox"
)

var paymentsDDL = []string{
	`CREATE TABLE IF NOT EXISTS orders (
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
);`,
	`CREATE TABLE IF NOT EXISTS order_line_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  variant_id TEXT NOT NULL,
  name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price TEXT NOT NULL,
  created_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS payment_plans (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL UNIQUE,
  total_amount TEXT NOT NULL DEFAULT '0',
  deposit_amount TEXT NOT NULL,
  balance_amount TEXT NOT NULL,
  deposit_paid_at DATETIME,
  balance_paid_at DATETIME,
  status TEXT NOT NULL DEFAULT 'active',
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS payment_ledger_entries (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  gateway TEXT NOT NULL,
  type TEXT NOT NULL,
  amount TEXT NOT NULL,
  currency TEXT NOT NULL,
  transaction_id TEXT NOT NULL,
  event_id TEXT NOT NULL,
  created_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS webhook_events (
  id TEXT PRIMARY KEY,
  gateway TEXT NOT NULL,
  event_type TEXT NOT NULL,
  natural_key TEXT NOT NULL,
  order_id TEXT,
  payload TEXT,
  outcome TEXT NOT NULL,
  error TEXT,
  created_at DATETIME
);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_webhook_events_processed_key
  ON webhook_events(natural_key) WHERE outcome = 'processed';`,
	`CREATE TABLE IF NOT EXISTS product_variants (
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
);`,
	`CREATE TABLE IF NOT EXISTS inventory_movements (
  id TEXT PRIMARY KEY,
  variant_id TEXT NOT NULL,
  order_id TEXT,
  type TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  stock_before INTEGER NOT NULL,
  stock_after INTEGER NOT NULL,
  reference TEXT,
  created_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`,
}

func setupPaymentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	for _, ddl := range paymentsDDL {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestProcessor(t *testing.T, db *gorm.DB) *Processor {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	inventorySvc, err := inventory.NewService(inventory.ServiceParams{
		Repo:     inventory.NewRepository(db),
		TxRunner: gormTxRunner{db: db},
		Logger:   logg,
	})
	require.NoError(t, err)

	processor, err := NewProcessor(ProcessorParams{
		Orders:            orders.NewRepository(db),
		Plans:             NewPlanRepository(db),
		Ledger:            ledger.NewRepository(db),
		WebhookLog:        webhooklog.NewRepository(db),
		Inventory:         inventorySvc,
		Outbox:            outbox.NewService(outbox.NewRepository(db), logg),
		TransactionRunner: gormTxRunner{db: db},
		Logger:            logg,
	})
	require.NoError(t, err)
	return processor
}

func seedOrder(t *testing.T, db *gorm.DB, id, total string) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:            id,
		CustomerEmail: "buyer@example.com",
		Currency:      enums.CurrencyBDT,
		TotalAmount:   decimal.RequireFromString(total),
		PaidAmount:    decimal.Zero,
		PaymentStatus: enums.PaymentStatusUnpaid,
		Status:        enums.OrderStatusPending,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func seedVariantWithLine(t *testing.T, db *gorm.DB, orderID, sku string, stock, qty int) uuid.UUID {
	t.Helper()
	variantID := uuid.New()
	require.NoError(t, db.Create(&models.ProductVariant{
		ID:        variantID,
		ProductID: uuid.New(),
		SKU:       sku,
		Name:      "variant " + sku,
		Price:     decimal.RequireFromString("100.00"),
		Stock:     stock,
	}).Error)
	require.NoError(t, db.Create(&models.OrderLineItem{
		ID:        uuid.New(),
		OrderID:   orderID,
		VariantID: variantID,
		Name:      "line " + sku,
		Quantity:  qty,
		UnitPrice: decimal.RequireFromString("100.00"),
	}).Error)
	return variantID
}

func cardEnvelope(t *testing.T, payload any) outbox.PayloadEnvelope {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	}
}

func cardConfirm(orderID, eventID string, amountMinor int64) map[string]any {
	return map[string]any{
		"order_id":       orderID,
		"event_id":       eventID,
		"transaction_id": "pi_" + eventID,
		"amount_minor":   amountMinor,
		"currency":       "bdt",
	}
}

func reloadOrder(t *testing.T, db *gorm.DB, id string) *models.Order {
	t.Helper()
	var order models.Order
	require.NoError(t, db.First(&order, "id = ?", id).Error)
	return &order
}

func TestProcess_FullConfirmSettlesOrder(t *testing.T) {
	db := setupPaymentsTestDB(t)
	processor := newTestProcessor(t, db)
	ctx := context.Background()

	seedOrder(t, db, "T6UWMI", "5208.00")
	envelope := cardEnvelope(t, cardConfirm("T6UWMI", "evt_full_1", 520800))

	res, err := processor.Process(ctx, enums.EventStripeConfirmed, envelope)
	require.NoError(t, err)
	require.Equal(t, ResultApplied, res.Result)

	order := reloadOrder(t, db, "T6UWMI")
	require.True(t, order.PaidAmount.Equal(decimal.RequireFromString("5208.00")), "paid %s", order.PaidAmount)
	require.Equal(t, enums.PaymentStatusPaid, order.PaymentStatus)
	require.Equal(t, 1, order.Version)
	require.NotNil(t, order.Gateway)
	require.Equal(t, enums.GatewayStripe, *order.Gateway)

	var logged models.WebhookEvent
	require.NoError(t, db.First(&logged, "natural_key = ?", "evt_full_1").Error)
	require.Equal(t, enums.WebhookOutcomeProcessed, logged.Outcome)

	var entries []models.PaymentLedgerEntry
	require.NoError(t, db.Find(&entries, "order_id = ?", "T6UWMI").Error)
	require.Len(t, entries, 1)
	require.Equal(t, enums.LedgerEntryCharge, entries[0].Type)

	var queued int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).
		Where("aggregate_id = ? AND event_type = ?", "T6UWMI", enums.EventOrderNotification).
		Count(&queued).Error)
	require.Equal(t, int64(1), queued)
}

func TestProcess_RedeliveryIsDuplicate(t *testing.T) {
	db := setupPaymentsTestDB(t)
	processor := newTestProcessor(t, db)
	ctx := context.Background()

	seedOrder(t, db, "ORD-DUP", "1000.00")
	envelope := cardEnvelope(t, cardConfirm("ORD-DUP", "evt_dup_1", 100000))

	res, err := processor.Process(ctx, enums.EventStripeConfirmed, envelope)
	require.NoError(t, err)
	require.Equal(t, ResultApplied, res.Result)

	for i := 0; i < 3; i++ {
		res, err = processor.Process(ctx, enums.EventStripeConfirmed, envelope)
		require.NoError(t, err)
		require.Equal(t, ResultDuplicate, res.Result)
	}

	order := reloadOrder(t, db, "ORD-DUP")
	require.True(t, order.PaidAmount.Equal(decimal.RequireFromString("1000.00")))
	require.Equal(t, 1, order.Version)
}

func TestProcess_DepositThenBalance(t *testing.T) {
	db := setupPaymentsTestDB(t)
	processor := newTestProcessor(t, db)
	ctx := context.Background()

	seedOrder(t, db, "ORD-PLAN", "1000.00")

	res, err := processor.Process(ctx, enums.EventStripeConfirmed,
		cardEnvelope(t, cardConfirm("ORD-PLAN", "evt_dep_1", 30000)))
	require.NoError(t, err)
	require.Equal(t, ResultApplied, res.Result)

	order := reloadOrder(t, db, "ORD-PLAN")
	require.Equal(t, enums.PaymentStatusPartial, order.PaymentStatus)
	require.True(t, order.Outstanding().Equal(decimal.RequireFromString("700.00")), "outstanding %s", order.Outstanding())

	var plan models.PaymentPlan
	require.NoError(t, db.First(&plan, "order_id = ?", "ORD-PLAN").Error)
	require.True(t, plan.TotalAmount.Equal(decimal.RequireFromString("1000.00")))
	require.True(t, plan.DepositAmount.Equal(decimal.RequireFromString("300.00")))
	require.True(t, plan.BalanceAmount.Equal(decimal.RequireFromString("700.00")))
	require.True(t, plan.DepositSettled())
	require.Equal(t, enums.PaymentPlanActive, plan.Status)

	res, err = processor.Process(ctx, enums.EventStripeConfirmed,
		cardEnvelope(t, cardConfirm("ORD-PLAN", "evt_bal_1", 70000)))
	require.NoError(t, err)
	require.Equal(t, ResultApplied, res.Result)

	order = reloadOrder(t, db, "ORD-PLAN")
	require.Equal(t, enums.PaymentStatusPaid, order.PaymentStatus)
	require.True(t, order.Outstanding().IsZero())

	require.NoError(t, db.First(&plan, "order_id = ?", "ORD-PLAN").Error)
	require.Equal(t, enums.PaymentPlanSettled, plan.Status)
	require.NotNil(t, plan.BalancePaidAt)

	var types []string
	require.NoError(t, db.Model(&models.PaymentLedgerEntry{}).
		Where("order_id = ?", "ORD-PLAN").
		Pluck("type", &types).Error)
	require.ElementsMatch(t, []string{"deposit", "balance"}, types)
}

func TestProcess_FullRefundConservesAmounts(t *testing.T) {
	db := setupPaymentsTestDB(t)
	processor := newTestProcessor(t, db)
	ctx := context.Background()

	seedOrder(t, db, "ORD-REFUND", "1000.00")
	variantID := seedVariantWithLine(t, db, "ORD-REFUND", "SKU-REFUND", 3, 2)

	_, err := processor.Process(ctx, enums.EventStripeConfirmed,
		cardEnvelope(t, cardConfirm("ORD-REFUND", "evt_conf_r", 100000)))
	require.NoError(t, err)

	refund := map[string]any{
		"order_id":     "ORD-REFUND",
		"event_id":     "evt_ref_r",
		"charge_id":    "ch_r",
		"amount_minor": 100000,
		"currency":     "bdt",
	}
	res, err := processor.Process(ctx, enums.EventStripeRefunded, cardEnvelope(t, refund))
	require.NoError(t, err)
	require.Equal(t, ResultApplied, res.Result)

	order := reloadOrder(t, db, "ORD-REFUND")
	require.True(t, order.PaidAmount.IsZero())
	require.Equal(t, enums.PaymentStatusRefunded, order.PaymentStatus)

	net, err := ledger.NewRepository(db).NetCollected(ctx, "ORD-REFUND")
	require.NoError(t, err)
	require.True(t, net.IsZero(), "net %s", net)

	var variant models.ProductVariant
	require.NoError(t, db.First(&variant, "id = ?", variantID).Error)
	require.Equal(t, 5, variant.Stock)
}

func TestProcess_RefundExceedingPaidIsRejected(t *testing.T) {
	db := setupPaymentsTestDB(t)
	processor := newTestProcessor(t, db)
	ctx := context.Background()

	seedOrder(t, db, "ORD-OVERREF", "1000.00")

	refund := map[string]any{
		"order_id":     "ORD-OVERREF",
		"event_id":     "evt_overref",
		"charge_id":    "ch_o",
		"amount_minor": 50000,
		"currency":     "bdt",
	}
	res, err := processor.Process(ctx, enums.EventStripeRefunded, cardEnvelope(t, refund))
	require.NoError(t, err)
	require.Equal(t, ResultRejected, res.Result)
	require.Equal(t, "refund exceeds paid amount", res.Reason)

	var logged models.WebhookEvent
	require.NoError(t, db.First(&logged, "natural_key = ?", "evt_overref").Error)
	require.Equal(t, enums.WebhookOutcomeFailed, logged.Outcome)
	require.NotNil(t, logged.Error)

	order := reloadOrder(t, db, "ORD-OVERREF")
	require.True(t, order.PaidAmount.IsZero())
	require.Equal(t, 0, order.Version)
}

func TestProcess_UnknownOrderIsRejected(t *testing.T) {
	db := setupPaymentsTestDB(t)
	processor := newTestProcessor(t, db)

	res, err := processor.Process(context.Background(), enums.EventStripeConfirmed,
		cardEnvelope(t, cardConfirm("ORD-GHOST", "evt_ghost", 1000)))
	require.NoError(t, err)
	require.Equal(t, ResultRejected, res.Result)
	require.Equal(t, "order not found", res.Reason)

	var logged models.WebhookEvent
	require.NoError(t, db.First(&logged, "natural_key = ?", "evt_ghost").Error)
	require.Equal(t, enums.WebhookOutcomeFailed, logged.Outcome)
	require.Nil(t, logged.OrderID)
}

func TestProcess_CancelReleasesReservedStock(t *testing.T) {
	db := setupPaymentsTestDB(t)
	processor := newTestProcessor(t, db)
	ctx := context.Background()

	seedOrder(t, db, "ORD-CXL", "1000.00")
	variantID := seedVariantWithLine(t, db, "ORD-CXL", "SKU-CXL", 10, 4)

	res, err := processor.Process(ctx, enums.EventStripeCanceled,
		cardEnvelope(t, cardConfirm("ORD-CXL", "evt_cxl", 0)))
	require.NoError(t, err)
	require.Equal(t, ResultApplied, res.Result)

	order := reloadOrder(t, db, "ORD-CXL")
	require.Equal(t, enums.OrderStatusCancelled, order.Status)
	require.Equal(t, enums.PaymentStatusUnpaid, order.PaymentStatus)

	var variant models.ProductVariant
	require.NoError(t, db.First(&variant, "id = ?", variantID).Error)
	require.Equal(t, 14, variant.Stock)

	var movements int64
	require.NoError(t, db.Model(&models.InventoryMovement{}).
		Where("order_id = ? AND type = ?", "ORD-CXL", enums.MovementReleased).
		Count(&movements).Error)
	require.Equal(t, int64(1), movements)
}

func TestProcess_CancelWithCapturedFundsIsRejected(t *testing.T) {
	db := setupPaymentsTestDB(t)
	processor := newTestProcessor(t, db)
	ctx := context.Background()

	seedOrder(t, db, "ORD-CXL-PAID", "1000.00")
	_, err := processor.Process(ctx, enums.EventStripeConfirmed,
		cardEnvelope(t, cardConfirm("ORD-CXL-PAID", "evt_cxlp_conf", 100000)))
	require.NoError(t, err)

	res, err := processor.Process(ctx, enums.EventStripeCanceled,
		cardEnvelope(t, cardConfirm("ORD-CXL-PAID", "evt_cxlp", 0)))
	require.NoError(t, err)
	require.Equal(t, ResultRejected, res.Result)
	require.Equal(t, "cannot cancel an order with captured funds", res.Reason)
}

func TestProcess_FailedEventRecordsReason(t *testing.T) {
	db := setupPaymentsTestDB(t)
	processor := newTestProcessor(t, db)
	ctx := context.Background()

	seedOrder(t, db, "ORD-DECLINE", "1000.00")
	payload := cardConfirm("ORD-DECLINE", "evt_decline", 100000)
	payload["failure_reason"] = "card declined"

	res, err := processor.Process(ctx, enums.EventStripeFailed, cardEnvelope(t, payload))
	require.NoError(t, err)
	require.Equal(t, ResultApplied, res.Result)

	order := reloadOrder(t, db, "ORD-DECLINE")
	require.True(t, order.PaidAmount.IsZero())
	require.Equal(t, enums.PaymentStatusUnpaid, order.PaymentStatus)
	require.NotNil(t, order.PaymentFailureReason)
	require.Equal(t, "card declined", *order.PaymentFailureReason)

	var logged models.WebhookEvent
	require.NoError(t, db.First(&logged, "natural_key = ?", "evt_decline").Error)
	require.Equal(t, enums.WebhookOutcomeProcessed, logged.Outcome)
	require.Contains(t, string(logged.Payload), "card declined")

	// A successful confirmation clears the decline.
	res, err = processor.Process(ctx, enums.EventStripeConfirmed,
		cardEnvelope(t, cardConfirm("ORD-DECLINE", "evt_decline_ok", 100000)))
	require.NoError(t, err)
	require.Equal(t, ResultApplied, res.Result)

	order = reloadOrder(t, db, "ORD-DECLINE")
	require.Nil(t, order.PaymentFailureReason)
	require.Equal(t, enums.PaymentStatusPaid, order.PaymentStatus)
}

func TestProcess_RetryAfterRejectionAppliesOnce(t *testing.T) {
	db := setupPaymentsTestDB(t)
	processor := newTestProcessor(t, db)
	ctx := context.Background()

	// First delivery arrives before the order row exists and is rejected.
	envelope := cardEnvelope(t, cardConfirm("ORD-LATE", "evt_late_1", 30000))
	res, err := processor.Process(ctx, enums.EventStripeConfirmed, envelope)
	require.NoError(t, err)
	require.Equal(t, ResultRejected, res.Result)

	var failed models.WebhookEvent
	require.NoError(t, db.First(&failed, "natural_key = ?", "evt_late_1").Error)
	require.Equal(t, enums.WebhookOutcomeFailed, failed.Outcome)

	// The order lands; the redelivery must supersede the stale failed row.
	seedOrder(t, db, "ORD-LATE", "1000.00")
	res, err = processor.Process(ctx, enums.EventStripeConfirmed, envelope)
	require.NoError(t, err)
	require.Equal(t, ResultApplied, res.Result)

	order := reloadOrder(t, db, "ORD-LATE")
	require.True(t, order.PaidAmount.Equal(decimal.RequireFromString("300.00")))

	var processed int64
	require.NoError(t, db.Model(&models.WebhookEvent{}).
		Where("natural_key = ? AND outcome = ?", "evt_late_1", enums.WebhookOutcomeProcessed).
		Count(&processed).Error)
	require.Equal(t, int64(1), processed)

	// A third delivery is a duplicate, not a second application.
	res, err = processor.Process(ctx, enums.EventStripeConfirmed, envelope)
	require.NoError(t, err)
	require.Equal(t, ResultDuplicate, res.Result)

	order = reloadOrder(t, db, "ORD-LATE")
	require.True(t, order.PaidAmount.Equal(decimal.RequireFromString("300.00")), "paid %s", order.PaidAmount)
}

func TestProcess_DisputeIsAuditOnly(t *testing.T) {
	db := setupPaymentsTestDB(t)
	processor := newTestProcessor(t, db)
	ctx := context.Background()

	seedOrder(t, db, "ORD-DISP", "1000.00")
	_, err := processor.Process(ctx, enums.EventStripeConfirmed,
		cardEnvelope(t, cardConfirm("ORD-DISP", "evt_disp_conf", 100000)))
	require.NoError(t, err)

	dispute := map[string]any{
		"order_id":     "ORD-DISP",
		"event_id":     "evt_disp",
		"dispute_id":   "dp_1",
		"reason":       "fraudulent",
		"amount_minor": 100000,
		"currency":     "bdt",
	}
	res, err := processor.Process(ctx, enums.EventStripeDisputed, cardEnvelope(t, dispute))
	require.NoError(t, err)
	require.Equal(t, ResultApplied, res.Result)

	order := reloadOrder(t, db, "ORD-DISP")
	require.True(t, order.PaidAmount.Equal(decimal.RequireFromString("1000.00")))
	require.Equal(t, enums.PaymentStatusPaid, order.PaymentStatus)

	var alerts int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).
		Where("aggregate_id = ? AND event_type = ?", "ORD-DISP", enums.EventOrderNotification).
		Count(&alerts).Error)
	require.Equal(t, int64(2), alerts)
}

func TestProcess_SSLCommerzAmountParsesOnce(t *testing.T) {
	db := setupPaymentsTestDB(t)
	processor := newTestProcessor(t, db)

	seedOrder(t, db, "ORD-SSL", "5208.00")
	payload := map[string]any{
		"order_id":     "ORD-SSL",
		"event_id":     "ORD-SSL:val-9",
		"tran_id":      "ORD-SSL",
		"val_id":       "val-9",
		"amount":       "5208.00",
		"currency":     "BDT",
		"status":       "VALID",
		"bank_tran_id": "bank-9",
	}
	res, err := processor.Process(context.Background(), enums.EventSSLCommerzConfirmed, cardEnvelope(t, payload))
	require.NoError(t, err)
	require.Equal(t, ResultApplied, res.Result)

	order := reloadOrder(t, db, "ORD-SSL")
	require.True(t, order.PaidAmount.Equal(decimal.RequireFromString("5208.00")))
	require.Equal(t, enums.PaymentStatusPaid, order.PaymentStatus)
	require.NotNil(t, order.TransactionID)
	require.Equal(t, "bank-9", *order.TransactionID)
}

func TestProcess_UnknownEventTypeIsRejected(t *testing.T) {
	db := setupPaymentsTestDB(t)
	processor := newTestProcessor(t, db)

	res, err := processor.Process(context.Background(), enums.EventOrderNotification,
		cardEnvelope(t, map[string]any{"order_id": "x"}))
	require.NoError(t, err)
	require.Equal(t, ResultRejected, res.Result)
	require.Contains(t, res.Reason, "no decoder registered")
}
