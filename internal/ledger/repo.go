package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bonikcommerce/bonik-backend/pkg/db/models"
)

// Repository manages the append-only payment ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	InsertTx(tx *gorm.DB, entry *models.PaymentLedgerEntry) error
	ListByOrder(ctx context.Context, orderID string) ([]models.PaymentLedgerEntry, error)
	NetCollected(ctx context.Context, orderID string) (decimal.Decimal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) InsertTx(tx *gorm.DB, entry *models.PaymentLedgerEntry) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(entry).Error
}

func (r *repository) ListByOrder(ctx context.Context, orderID string) ([]models.PaymentLedgerEntry, error) {
	var entries []models.PaymentLedgerEntry
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// NetCollected sums the ledger for an order. Refund rows are negative so
// the sum is the amount currently held.
func (r *repository) NetCollected(ctx context.Context, orderID string) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentLedgerEntry{}).
		Where("order_id = ?", orderID).
		Select("SUM(amount)").
		Scan(&total).Error; err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
