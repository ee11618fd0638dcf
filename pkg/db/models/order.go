package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bonikcommerce/bonik-backend/pkg/enums"
)

// Order is the buyer-facing order the payment pipeline settles against.
// The primary key is the short public order code carried in gateway
// payloads (Stripe metadata, SSLCommerz tran_id), not a UUID.
type Order struct {
	ID            string         `gorm:"column:id;type:text;primaryKey"`
	CustomerEmail string         `gorm:"column:customer_email;type:text;not null"`
	CustomerPhone *string        `gorm:"column:customer_phone;type:text"`
	Currency      enums.Currency `gorm:"column:currency;type:text;not null;default:'BDT'"`
	Gateway       *enums.Gateway `gorm:"column:gateway;type:text"`
	TransactionID *string        `gorm:"column:transaction_id;type:text"`
	// PaymentFailureReason surfaces the last gateway decline on the order
	// itself. A later successful confirmation clears it.
	PaymentFailureReason *string             `gorm:"column:payment_failure_reason;type:text"`
	TotalAmount          decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	PaidAmount           decimal.Decimal     `gorm:"column:paid_amount;type:numeric(12,2);not null;default:0"`
	PaymentStatus        enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'unpaid'"`
	Status               enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	// Version is an optimistic concurrency token bumped on every
	// settlement-affecting write. Concurrent refund/confirm deliveries
	// lose the race and retry instead of clobbering each other.
	Version   int             `gorm:"column:version;not null;default:0"`
	Items     []OrderLineItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// Outstanding reports the amount still owed on the order.
func (o Order) Outstanding() decimal.Decimal {
	return o.TotalAmount.Sub(o.PaidAmount)
}
