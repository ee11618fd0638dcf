package payments

import (
	"errors"

	"gorm.io/gorm"

	"github.com/bonikcommerce/bonik-backend/pkg/db/models"
)

// PlanRepository manages deposit/balance installment plans.
type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// FindByOrderTx returns the plan for an order, or nil when the order has
// no installment plan.
func (r *PlanRepository) FindByOrderTx(tx *gorm.DB, orderID string) (*models.PaymentPlan, error) {
	if tx == nil {
		tx = r.db
	}
	var plan models.PaymentPlan
	err := tx.Where("order_id = ?", orderID).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *PlanRepository) CreateTx(tx *gorm.DB, plan *models.PaymentPlan) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(plan).Error
}

func (r *PlanRepository) UpdateTx(tx *gorm.DB, plan *models.PaymentPlan) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Model(&models.PaymentPlan{}).
		Where("id = ?", plan.ID).
		Updates(map[string]any{
			"deposit_paid_at": plan.DepositPaidAt,
			"balance_paid_at": plan.BalancePaidAt,
			"status":          plan.Status,
		}).Error
}
