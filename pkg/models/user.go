package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a denormalized contact lookup, not a strict parent of Order.
// Email is the preferred unique key; phone is the fallback when no email
// was given. Both are nullable pointers so absent values do not collide
// on the unique indexes.
type User struct {
	ID        string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name      string         `gorm:"type:varchar(100);not null" json:"name"`
	Email     *string        `gorm:"type:varchar(100);uniqueIndex" json:"email"`
	Phone     *string        `gorm:"type:varchar(20);uniqueIndex" json:"phone"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}
