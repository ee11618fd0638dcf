package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bonikcommerce/bonik-backend/pkg/enums"
)

// Shipment tracks a courier consignment for an order.
type Shipment struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       string               `gorm:"column:order_id;type:text;not null;index"`
	Courier       enums.Gateway        `gorm:"column:courier;type:text;not null"`
	ConsignmentID string               `gorm:"column:consignment_id;type:text;not null;uniqueIndex:idx_shipments_consignment"`
	Status        enums.ShipmentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	RawStatus     *string              `gorm:"column:raw_status;type:text"`
	DeliveredAt   *time.Time           `gorm:"column:delivered_at"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
