package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/storefront/pkg/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetHeroSettings returns the single hero row, or nil if none was saved yet.
func (s *Store) GetHeroSettings(ctx context.Context) (*models.HeroSettings, error) {
	var settings models.HeroSettings
	err := s.db.WithContext(ctx).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load hero settings: %w", err)
	}
	return &settings, nil
}

// SaveHeroSettings creates the row when no id is given, updates it otherwise.
func (s *Store) SaveHeroSettings(ctx context.Context, settings *models.HeroSettings) (*models.HeroSettings, error) {
	if settings.ID == "" {
		settings.ID = uuid.NewString()
		if err := s.db.WithContext(ctx).Create(settings).Error; err != nil {
			return nil, fmt.Errorf("failed to create hero settings: %w", err)
		}
		return settings, nil
	}

	settings.UpdatedAt = time.Now()
	res := s.db.WithContext(ctx).Model(&models.HeroSettings{}).
		Where("id = ?", settings.ID).
		Updates(settings)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update hero settings: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	var out models.HeroSettings
	if err := s.db.WithContext(ctx).Where("id = ?", settings.ID).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) ListTestimonials(ctx context.Context, activeOnly bool) ([]models.Testimonial, error) {
	query := s.db.WithContext(ctx).Model(&models.Testimonial{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var testimonials []models.Testimonial
	if err := query.Order("created_at DESC").Find(&testimonials).Error; err != nil {
		return nil, fmt.Errorf("failed to list testimonials: %w", err)
	}
	return testimonials, nil
}

func (s *Store) CreateTestimonial(ctx context.Context, t *models.Testimonial) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Rating == 0 {
		t.Rating = 5
	}
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create testimonial: %w", err)
	}
	return nil
}

func (s *Store) UpdateTestimonial(ctx context.Context, id string, updates map[string]interface{}) (*models.Testimonial, error) {
	updates["updated_at"] = time.Now()
	res := s.db.WithContext(ctx).Model(&models.Testimonial{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update testimonial: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	var out models.Testimonial
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) DeleteTestimonial(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Testimonial{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete testimonial: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
