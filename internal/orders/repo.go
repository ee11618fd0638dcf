package orders

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/bonikcommerce/bonik-backend/pkg/db/models"
)

// ErrVersionConflict reports that another writer settled against the order
// between load and update. Callers retry by redelivery, not in place.
var ErrVersionConflict = errors.New("order version conflict")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *Repository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *Repository) FindByIDTx(tx *gorm.DB, id string) (*models.Order, error) {
	var order models.Order
	err := tx.Preload("Items").First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// UpdateWithVersionTx persists settlement fields guarded by the optimistic
// version the order was loaded at. Zero rows affected means a concurrent
// writer won and the caller must retry.
func (r *Repository) UpdateWithVersionTx(tx *gorm.DB, order *models.Order, loadedVersion int) error {
	result := tx.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Where("version = ?", loadedVersion).
		Updates(map[string]any{
			"paid_amount":    order.PaidAmount,
			"payment_status": order.PaymentStatus,
			"status":         order.Status,
			"gateway":        order.Gateway,
			"transaction_id": order.TransactionID,
			"version":        loadedVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	order.Version = loadedVersion + 1
	return nil
}
