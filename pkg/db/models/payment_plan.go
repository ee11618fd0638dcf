package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bonikcommerce/bonik-backend/pkg/enums"
)

// PaymentPlan splits an order total into a deposit installment and a
// balance installment. The balance becomes payable only after the
// deposit settles.
type PaymentPlan struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       string                  `gorm:"column:order_id;type:text;not null;uniqueIndex"`
	TotalAmount   decimal.Decimal         `gorm:"column:total_amount;type:numeric(12,2);not null"`
	DepositAmount decimal.Decimal         `gorm:"column:deposit_amount;type:numeric(12,2);not null"`
	BalanceAmount decimal.Decimal         `gorm:"column:balance_amount;type:numeric(12,2);not null"`
	DepositPaidAt *time.Time              `gorm:"column:deposit_paid_at"`
	BalancePaidAt *time.Time              `gorm:"column:balance_paid_at"`
	Status        enums.PaymentPlanStatus `gorm:"column:status;type:text;not null;default:'active'"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// DepositSettled reports whether the deposit installment has been paid.
func (p PaymentPlan) DepositSettled() bool {
	return p.DepositPaidAt != nil
}
