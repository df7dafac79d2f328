package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/storefront/pkg/models"
	"gorm.io/gorm"
)

// ErrSlotUnavailable rejects a payment confirmation whose booked slot was
// concurrently taken. The surrounding transaction rolls back, leaving the
// order pending for manual resolution.
var ErrSlotUnavailable = errors.New("slot already booked")

// ErrGatewayOrderMismatch rejects a confirmation whose gateway order id
// does not belong to the addressed order. A signature that is valid for one
// order must not confirm another.
var ErrGatewayOrderMismatch = errors.New("gateway order id does not match order")

// ConfirmResult reports what the idempotent paid-transition did. Applied is
// false when the order had already been confirmed by the other path, in
// which case no counters were touched.
type ConfirmResult struct {
	Order   *models.Order
	Applied bool
}

func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Service").
		Preload("Product").
		Preload("User").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// SetGatewayOrderID records the gateway reservation on a freshly created
// order. A crash before this point leaves a harmless gateway-id-less
// pending order that can never be confirmed.
func (s *Store) SetGatewayOrderID(ctx context.Context, orderID, gatewayOrderID string) error {
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"gateway_order_id": gatewayOrderID,
			"updated_at":       time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to set gateway order id: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ConfirmOrderPaid applies the paid transition to an order addressed by its
// internal id. The caller's gateway order id must match the one stored on
// the order; the signature it verified binds that pair, not this order.
func (s *Store) ConfirmOrderPaid(ctx context.Context, orderID, gatewayOrderID, paymentID string) (*ConfirmResult, error) {
	return s.confirmPaid(ctx, "id = ?", orderID, gatewayOrderID, paymentID)
}

// ConfirmOrderPaidByGatewayID is the webhook-side variant, addressing the
// order by the gateway's order id.
func (s *Store) ConfirmOrderPaidByGatewayID(ctx context.Context, gatewayOrderID, paymentID string) (*ConfirmResult, error) {
	return s.confirmPaid(ctx, "gateway_order_id = ?", gatewayOrderID, "", paymentID)
}

// confirmPaid is the single idempotent transition both confirmation paths
// share. The UPDATE is guarded on status <> 'paid', so the client callback
// and the gateway webhook can race or repeat without double-incrementing
// a sold counter. Counter bumps and slot booking ride in the same
// transaction as the status flip. A non-empty gatewayOrderID must match
// the one stored on the order; the webhook path passes "" because it
// addresses the order by that id already.
func (s *Store) confirmPaid(ctx context.Context, cond, key, gatewayOrderID, paymentID string) (*ConfirmResult, error) {
	result := &ConfirmResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upd := tx.Model(&models.Order{}).
			Where(cond, key).
			Where("status <> ?", models.OrderStatusPaid)
		if gatewayOrderID != "" {
			upd = upd.Where("gateway_order_id = ?", gatewayOrderID)
		}
		res := upd.Updates(map[string]interface{}{
			"payment_status":     models.PaymentStatusPaid,
			"status":             models.OrderStatusPaid,
			"gateway_payment_id": paymentID,
			"fulfilled":          false,
			"updated_at":         time.Now(),
		})
		if res.Error != nil {
			return fmt.Errorf("failed to confirm order: %w", res.Error)
		}

		var order models.Order
		if err := tx.Where(cond, key).First(&order).Error; err != nil {
			return err
		}
		result.Order = &order

		if gatewayOrderID != "" &&
			(order.GatewayOrderID == nil || *order.GatewayOrderID != gatewayOrderID) {
			return ErrGatewayOrderMismatch
		}

		if res.RowsAffected == 0 {
			// Already paid via the other path; nothing else to do.
			return nil
		}
		result.Applied = true

		if order.ProductID != nil {
			err := tx.Model(&models.Product{}).
				Where("id = ?", *order.ProductID).
				UpdateColumn("sold_count", gorm.Expr("sold_count + ?", 1)).Error
			if err != nil {
				return fmt.Errorf("failed to increment sold count: %w", err)
			}
		}

		if order.ServiceID != nil {
			var svc models.Service
			if err := tx.Where("id = ?", *order.ServiceID).First(&svc).Error; err == nil && svc.AutoIncrementSales {
				err := tx.Model(&models.Service{}).
					Where("id = ?", svc.ID).
					UpdateColumn("sales_count", gorm.Expr("sales_count + ?", 1)).Error
				if err != nil {
					return fmt.Errorf("failed to increment sales count: %w", err)
				}
			}
		}

		if order.SlotDateTime != nil && order.ServiceID != nil {
			if err := bookSlotTx(tx, *order.ServiceID, *order.SlotDateTime); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// Reload with joins outside the transaction for the response/email.
	full, err := s.GetOrder(ctx, result.Order.ID)
	if err == nil {
		result.Order = full
	}
	return result, nil
}

// bookSlotTx marks the matching slot booked inside the confirmation
// transaction. A slot that exists but was concurrently taken fails the
// confirmation; an ad hoc time with no slot row is let through.
func bookSlotTx(tx *gorm.DB, serviceID string, start time.Time) error {
	res := tx.Model(&models.Slot{}).
		Where("service_id = ? AND start_time = ? AND is_booked = ?", serviceID, start, false).
		Update("is_booked", true)
	if res.Error != nil {
		return fmt.Errorf("failed to book slot: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := tx.Model(&models.Slot{}).
		Where("service_id = ? AND start_time = ?", serviceID, start).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrSlotUnavailable
	}
	return nil
}

// MarkFulfilled flips the fulfilled flag regardless of payment status; the
// admin uses it as a manual escape hatch.
func (s *Store) MarkFulfilled(ctx context.Context, orderID string) (*models.Order, error) {
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"fulfilled":  true,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to mark order fulfilled: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return s.GetOrder(ctx, orderID)
}

// OrderFilter narrows ListOrders. Email and phone match either contact
// column; status matches exactly.
type OrderFilter struct {
	Email  string
	Phone  string
	Status string
}

func (s *Store) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{}).
		Preload("Service").
		Preload("Product").
		Preload("User")

	if filter.Email != "" && filter.Phone != "" {
		query = query.Where("customer_email = ? OR customer_phone = ?", filter.Email, filter.Phone)
	} else if filter.Email != "" {
		query = query.Where("customer_email = ?", filter.Email)
	} else if filter.Phone != "" {
		query = query.Where("customer_phone = ?", filter.Phone)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// StoreStats is the admin dashboard summary.
type StoreStats struct {
	TotalRevenue  float64 `json:"total_revenue"`
	TotalOrders   int64   `json:"total_orders"`
	TotalUsers    int64   `json:"total_users"`
	PendingOrders int64   `json:"pending_orders"`
}

func (s *Store) Stats(ctx context.Context) (*StoreStats, error) {
	var stats StoreStats

	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("status = ?", models.OrderStatusPaid).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&stats.TotalRevenue).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&models.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Model(&models.Order{}).
		Where("status = ?", models.OrderStatusPending).
		Count(&stats.PendingOrders).Error
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

// Revenue returns the paid orders newest first plus their total.
func (s *Store) Revenue(ctx context.Context) (float64, []models.Order, error) {
	var total float64
	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("status = ?", models.OrderStatusPaid).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, nil, fmt.Errorf("failed to sum revenue: %w", err)
	}

	var orders []models.Order
	err = s.db.WithContext(ctx).
		Preload("Service").
		Preload("Product").
		Where("status = ?", models.OrderStatusPaid).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

// PaymentRecord is the ledger projection shown on the admin payments page.
type PaymentRecord struct {
	ID               string    `json:"id"`
	GatewayOrderID   *string   `json:"gateway_order_id"`
	GatewayPaymentID *string   `json:"gateway_payment_id"`
	PaymentStatus    string    `json:"payment_status"`
	Amount           float64   `json:"amount"`
	CustomerName     string    `json:"customer_name"`
	CreatedAt        time.Time `json:"created_at"`
}

func (s *Store) ListPayments(ctx context.Context) ([]PaymentRecord, error) {
	var records []PaymentRecord
	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Select("id", "gateway_order_id", "gateway_payment_id", "payment_status", "amount", "customer_name", "created_at").
		Order("created_at DESC").
		Scan(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return records, nil
}
