package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/example/storefront/pkg/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Services

func (s *Store) ListServices(ctx context.Context, activeOnly bool) ([]models.Service, error) {
	query := s.db.WithContext(ctx).Model(&models.Service{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var services []models.Service
	if err := query.Order("created_at DESC").Find(&services).Error; err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}

func (s *Store) GetService(ctx context.Context, id string) (*models.Service, error) {
	var svc models.Service
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&svc).Error; err != nil {
		return nil, err
	}
	return &svc, nil
}

func (s *Store) CreateService(ctx context.Context, svc *models.Service) error {
	if svc.ID == "" {
		svc.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(svc).Error; err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	return nil
}

func (s *Store) UpdateService(ctx context.Context, id string, updates map[string]interface{}) (*models.Service, error) {
	updates["updated_at"] = time.Now()
	res := s.db.WithContext(ctx).Model(&models.Service{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update service: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return s.GetService(ctx, id)
}

func (s *Store) DeleteService(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Service{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete service: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Products

func (s *Store) ListProducts(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var products []models.Product
	if err := query.Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (s *Store) UpdateProduct(ctx context.Context, id string, updates map[string]interface{}) (*models.Product, error) {
	updates["updated_at"] = time.Now()
	res := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return s.GetProduct(ctx, id)
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Slots

// AvailableSlots is the checkout-side query: unbooked slots for a service
// inside a date window, soonest first.
func (s *Store) AvailableSlots(ctx context.Context, serviceID string, from, to time.Time) ([]models.Slot, error) {
	var slots []models.Slot
	err := s.db.WithContext(ctx).
		Where("service_id = ? AND is_booked = ? AND start_time >= ? AND start_time <= ?",
			serviceID, false, from, to).
		Order("start_time ASC").
		Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list available slots: %w", err)
	}
	return slots, nil
}

// ListSlots is the admin-side query, optionally narrowed by service and window.
func (s *Store) ListSlots(ctx context.Context, serviceID string, from, to *time.Time) ([]models.Slot, error) {
	query := s.db.WithContext(ctx).Model(&models.Slot{}).Preload("Service")
	if serviceID != "" {
		query = query.Where("service_id = ?", serviceID)
	}
	if from != nil && to != nil {
		query = query.Where("start_time >= ? AND start_time <= ?", *from, *to)
	}
	var slots []models.Slot
	if err := query.Order("start_time ASC").Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}

func (s *Store) CreateSlot(ctx context.Context, serviceID string, startTime time.Time) (*models.Slot, error) {
	slot := &models.Slot{
		ID:        uuid.NewString(),
		ServiceID: serviceID,
		StartTime: models.NormalizeSlotTime(startTime),
		IsBooked:  false,
	}
	if err := s.db.WithContext(ctx).Create(slot).Error; err != nil {
		return nil, fmt.Errorf("failed to create slot: %w", err)
	}
	return slot, nil
}

func (s *Store) DeleteSlot(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Slot{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete slot: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
