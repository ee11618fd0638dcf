package webhooklog

import (
	"context"
	"errors"

	"gorm.io/gorm"

	dbpkg "github.com/bonikcommerce/bonik-backend/pkg/db"
	"github.com/bonikcommerce/bonik-backend/pkg/db/models"
	"github.com/bonikcommerce/bonik-backend/pkg/enums"
)

// ErrAlreadyRecorded reports that a processed webhook event with the same
// natural key was already written. The partial unique index is the durable
// idempotency tier that survives Redis eviction; failed rows do not claim
// the key, so a retried delivery can still supersede them.
var ErrAlreadyRecorded = errors.New("webhook event already recorded")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// InsertTx appends the event record. A unique violation (two processed
// rows for one natural key) maps to ErrAlreadyRecorded so the caller can
// roll back and resolve the delivery as a duplicate.
func (r *Repository) InsertTx(tx *gorm.DB, event *models.WebhookEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if err := tx.Create(event).Error; err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return ErrAlreadyRecorded
		}
		return err
	}
	return nil
}

// HasProcessedTx reports whether a delivery with this natural key already
// produced a processed record.
func (r *Repository) HasProcessedTx(tx *gorm.DB, naturalKey string) (bool, error) {
	if tx == nil {
		return false, errors.New("transaction required")
	}
	var count int64
	err := tx.Model(&models.WebhookEvent{}).
		Where("natural_key = ?", naturalKey).
		Where("outcome = ?", enums.WebhookOutcomeProcessed).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByNaturalKey loads the latest event record for the key regardless
// of outcome.
func (r *Repository) FindByNaturalKey(ctx context.Context, naturalKey string) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	err := r.db.WithContext(ctx).
		Where("natural_key = ?", naturalKey).
		Order("created_at DESC").
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// ListByOrder returns the audit trail for an order, newest first.
func (r *Repository) ListByOrder(ctx context.Context, orderID string, limit int) ([]models.WebhookEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.WebhookEvent
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
