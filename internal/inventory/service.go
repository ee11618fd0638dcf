package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bonikcommerce/bonik-backend/pkg/db/models"
	"github.com/bonikcommerce/bonik-backend/pkg/enums"
	pkgerrors "github.com/bonikcommerce/bonik-backend/pkg/errors"
	"github.com/bonikcommerce/bonik-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type alertSink interface {
	Go(name string, fn func(ctx context.Context) error) error
}

type notificationWriter interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type ServiceParams struct {
	Repo              *Repository
	TxRunner          txRunner
	Alerts            alertSink
	Notifications     notificationWriter
	LowStockThreshold int
	Logger            *logger.Logger
}

// Service owns the stock ledger. Every stock change lands as an
// append-only movement row in the same transaction as the counter
// update.
type Service struct {
	repo          *Repository
	txRunner      txRunner
	alerts        alertSink
	notifications notificationWriter
	threshold     int
	logg          *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "inventory repo required")
	}
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	threshold := params.LowStockThreshold
	if threshold <= 0 {
		threshold = 5
	}
	return &Service{
		repo:          params.Repo,
		txRunner:      params.TxRunner,
		alerts:        params.Alerts,
		notifications: params.Notifications,
		threshold:     threshold,
		logg:          params.Logger,
	}, nil
}

// Adjust applies a stock delta to a variant. The resulting level is
// clamped at zero; the movement row records the actual before/after so
// oversell attempts stay visible in the ledger.
func (s *Service) Adjust(ctx context.Context, variantID uuid.UUID, delta int, movementType enums.MovementType, orderID *string, reference *string) (*models.InventoryMovement, error) {
	var movement *models.InventoryMovement
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		applied, err := s.adjustTx(tx, variantID, delta, movementType, orderID, reference)
		if err != nil {
			return err
		}
		movement = applied
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// AdjustTx is Adjust running inside the caller's transaction.
func (s *Service) AdjustTx(tx *gorm.DB, variantID uuid.UUID, delta int, movementType enums.MovementType, orderID *string, reference *string) (*models.InventoryMovement, error) {
	return s.adjustTx(tx, variantID, delta, movementType, orderID, reference)
}

func (s *Service) adjustTx(tx *gorm.DB, variantID uuid.UUID, delta int, movementType enums.MovementType, orderID *string, reference *string) (*models.InventoryMovement, error) {
	variant, err := s.repo.WithTx(tx).FindVariantTx(tx, variantID)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("variant %s not found", variantID))
	}

	before := variant.Stock
	after := before + delta
	if after < 0 {
		after = 0
	}
	variant.Stock = after

	loadedVersion := variant.Version
	if err := s.repo.UpdateStockWithVersionTx(tx, variant, loadedVersion); err != nil {
		return nil, err
	}

	movement := &models.InventoryMovement{
		VariantID:   variant.ID,
		OrderID:     orderID,
		Type:        movementType,
		Quantity:    delta,
		StockBefore: before,
		StockAfter:  after,
		Reference:   reference,
	}
	if err := s.repo.InsertMovementTx(tx, movement); err != nil {
		return nil, err
	}

	threshold := s.threshold
	if variant.LowStockThreshold > 0 {
		threshold = variant.LowStockThreshold
	}
	if before > threshold && after <= threshold {
		s.fireLowStockAlert(variant)
	}
	return movement, nil
}

// Release restores stock for every line item of a cancelled or refunded
// order. A second call for the same order is a no-op.
func (s *Service) Release(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	released, err := s.repo.WithTx(tx).HasMovementForOrderTx(tx, order.ID, enums.MovementReleased)
	if err != nil {
		return err
	}
	if released {
		return nil
	}
	reference := fmt.Sprintf("release:%s", order.ID)
	orderID := order.ID
	for _, item := range order.Items {
		if _, err := s.adjustTx(tx, item.VariantID, item.Quantity, enums.MovementReleased, &orderID, &reference); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) fireLowStockAlert(variant *models.ProductVariant) {
	if s.alerts == nil || s.notifications == nil {
		return
	}
	sku := variant.SKU
	stock := variant.Stock
	err := s.alerts.Go("low-stock-alert", func(ctx context.Context) error {
		return s.notifications.Create(ctx, &models.Notification{
			Type:    enums.NotificationTypeLowStock,
			Title:   "Low stock",
			Message: fmt.Sprintf("Variant %s is down to %d units.", sku, stock),
		})
	})
	if err != nil && s.logg != nil {
		s.logg.Warn(context.Background(), fmt.Sprintf("low stock alert dropped for %s", sku))
	}
}
