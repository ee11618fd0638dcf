package shipments

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/bonikcommerce/bonik-backend/pkg/db/models"
	"github.com/bonikcommerce/bonik-backend/pkg/enums"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, shipment *models.Shipment) error {
	return r.db.WithContext(ctx).Create(shipment).Error
}

func (r *Repository) FindByConsignmentID(ctx context.Context, consignmentID string) (*models.Shipment, error) {
	var shipment models.Shipment
	err := r.db.WithContext(ctx).First(&shipment, "consignment_id = ?", consignmentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &shipment, nil
}

// UpdateTrackingStatusTx records the canonical and raw statuses, stamping
// delivered_at on the first delivered transition.
func (r *Repository) UpdateTrackingStatusTx(tx *gorm.DB, shipment *models.Shipment, status enums.ShipmentStatus, rawStatus string) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	updates := map[string]any{
		"status":     status,
		"raw_status": rawStatus,
	}
	if status == enums.ShipmentStatusDelivered && shipment.DeliveredAt == nil {
		now := time.Now()
		updates["delivered_at"] = now
		shipment.DeliveredAt = &now
	}
	if err := tx.Model(&models.Shipment{}).Where("id = ?", shipment.ID).Updates(updates).Error; err != nil {
		return err
	}
	shipment.Status = status
	shipment.RawStatus = &rawStatus
	return nil
}
