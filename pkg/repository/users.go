package repository

import (
	"context"
	"fmt"

	"github.com/example/storefront/pkg/models"
	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

// UpsertUserByContact resolves or creates the User for an order. Email is
// the unique key when present, phone the fallback. The ON CONFLICT clause
// makes the upsert a single atomic statement, so concurrent checkouts for
// the same contact cannot create duplicate rows.
func (s *Store) UpsertUserByContact(ctx context.Context, name, email, phone string) (*models.User, error) {
	user := &models.User{
		ID:   uuid.NewString(),
		Name: name,
	}

	switch {
	case email != "":
		user.Email = &email
		if phone != "" {
			user.Phone = &phone
		}
		err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "phone", "updated_at"}),
		}).Create(user).Error
		if err != nil {
			return nil, fmt.Errorf("failed to upsert user by email: %w", err)
		}
		// The upsert does not report the surviving row's id; re-read by key.
		var out models.User
		if err := s.db.WithContext(ctx).Where("email = ?", email).First(&out).Error; err != nil {
			return nil, fmt.Errorf("failed to load upserted user: %w", err)
		}
		return &out, nil

	case phone != "":
		user.Phone = &phone
		err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "phone"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
		}).Create(user).Error
		if err != nil {
			return nil, fmt.Errorf("failed to upsert user by phone: %w", err)
		}
		var out models.User
		if err := s.db.WithContext(ctx).Where("phone = ?", phone).First(&out).Error; err != nil {
			return nil, fmt.Errorf("failed to load upserted user: %w", err)
		}
		return &out, nil
	}

	return nil, fmt.Errorf("user upsert requires an email or a phone")
}

func (s *Store) ListUsers(ctx context.Context, page, pageSize int) ([]models.User, int64, error) {
	var users []models.User
	var total int64

	query := s.db.WithContext(ctx).Model(&models.User{})
	query.Count(&total)

	offset := (page - 1) * pageSize
	if err := query.Order("created_at DESC").Offset(offset).Limit(pageSize).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}
