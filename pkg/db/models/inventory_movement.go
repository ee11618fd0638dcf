package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bonikcommerce/bonik-backend/pkg/enums"
)

// InventoryMovement is one append-only row in the stock ledger. Every
// stock mutation records a movement so current stock can always be
// reconciled against the ledger.
type InventoryMovement struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VariantID   uuid.UUID          `gorm:"column:variant_id;type:uuid;not null;index"`
	OrderID     *string            `gorm:"column:order_id;type:text;index"`
	Type        enums.MovementType `gorm:"column:type;type:text;not null"`
	Quantity    int                `gorm:"column:quantity;not null"`
	StockBefore int                `gorm:"column:stock_before;not null"`
	StockAfter  int                `gorm:"column:stock_after;not null"`
	Reference   *string            `gorm:"column:reference;type:text"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
}
