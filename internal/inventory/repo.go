package inventory

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bonikcommerce/bonik-backend/pkg/db/models"
	"github.com/bonikcommerce/bonik-backend/pkg/enums"
)

// ErrVersionConflict reports a concurrent stock write on the same variant.
var ErrVersionConflict = errors.New("variant version conflict")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) FindVariantTx(tx *gorm.DB, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := tx.First(&variant, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &variant, nil
}

// UpdateStockWithVersionTx writes the new stock level guarded by the
// version the variant was loaded at.
func (r *Repository) UpdateStockWithVersionTx(tx *gorm.DB, variant *models.ProductVariant, loadedVersion int) error {
	result := tx.Model(&models.ProductVariant{}).
		Where("id = ?", variant.ID).
		Where("version = ?", loadedVersion).
		Updates(map[string]any{
			"stock":    variant.Stock,
			"reserved": variant.Reserved,
			"version":  loadedVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	variant.Version = loadedVersion + 1
	return nil
}

func (r *Repository) InsertMovementTx(tx *gorm.DB, movement *models.InventoryMovement) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(movement).Error
}

// HasMovementForOrderTx reports whether a movement of the given type was
// already recorded for the order. Used to make Release idempotent.
func (r *Repository) HasMovementForOrderTx(tx *gorm.DB, orderID string, movementType enums.MovementType) (bool, error) {
	var count int64
	err := tx.Model(&models.InventoryMovement{}).
		Where("order_id = ?", orderID).
		Where("type = ?", movementType).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
