package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bonikcommerce/bonik-backend/pkg/enums"
)

// PaymentLedgerEntry records one settled money movement against an order.
// Refunds carry a negative amount so summing a ledger yields the net
// amount collected.
type PaymentLedgerEntry struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       string                `gorm:"column:order_id;type:text;not null;index"`
	Gateway       enums.Gateway         `gorm:"column:gateway;type:text;not null"`
	Type          enums.LedgerEntryType `gorm:"column:type;type:text;not null"`
	Amount        decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency      enums.Currency        `gorm:"column:currency;type:text;not null"`
	TransactionID string                `gorm:"column:transaction_id;type:text;not null"`
	EventID       string                `gorm:"column:event_id;type:text;not null"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
}
