package models

import (
	"time"
)

// HeroSettings holds the marketing-page hero copy. The store keeps a single
// row; saving without an id creates it, saving with an id updates it.
type HeroSettings struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Headline     string    `gorm:"type:varchar(300)" json:"headline"`
	Subheadline  string    `gorm:"type:text" json:"subheadline"`
	CTAText      string    `gorm:"type:varchar(100)" json:"cta_text"`
	CTALink      string    `gorm:"type:varchar(500)" json:"cta_link"`
	ImageURL     string    `gorm:"type:varchar(500)" json:"image_url"`
	ShowBadges   bool      `gorm:"default:true" json:"show_badges"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (HeroSettings) TableName() string {
	return "hero_settings"
}

type Testimonial struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Role      string    `gorm:"type:varchar(100)" json:"role"`
	Quote     string    `gorm:"type:text;not null" json:"quote"`
	Rating    int       `gorm:"default:5" json:"rating"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Testimonial) TableName() string {
	return "testimonials"
}
