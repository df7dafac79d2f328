package models

import (
	"time"

	"gorm.io/gorm"
)

// Service is a bookable or instant coaching offering. Includes and Features
// are stored as JSON-encoded string lists.
type Service struct {
	ID                 string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title              string         `gorm:"type:varchar(200);not null" json:"title"`
	Description        string         `gorm:"type:text" json:"description"`
	Duration           string         `gorm:"type:varchar(50)" json:"duration"`
	Format             string         `gorm:"type:varchar(50)" json:"format"`
	Price              float64        `gorm:"type:decimal(10,2);not null" json:"price"`
	Category           string         `gorm:"type:varchar(50);index" json:"category"`
	RequiresSlot       bool           `gorm:"default:false" json:"requires_slot"`
	SalesCount         int            `gorm:"default:0" json:"sales_count"`
	ShowSalesCount     bool           `gorm:"default:false" json:"show_sales_count"`
	AutoIncrementSales bool           `gorm:"default:false" json:"auto_increment_sales"`
	IsPopular          bool           `gorm:"default:false" json:"is_popular"`
	IsBestSeller       bool           `gorm:"default:false" json:"is_best_seller"`
	Includes           string         `gorm:"type:text" json:"includes"`
	Features           string         `gorm:"type:text" json:"features"`
	MeetingURL         string         `gorm:"type:varchar(500)" json:"meeting_url"`
	IsActive           bool           `gorm:"default:true" json:"is_active"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Service) TableName() string {
	return "services"
}

// Product is a digital deliverable. SoldCount is only ever moved by the
// atomic increment in the repository, never read-modify-write.
type Product struct {
	ID            string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title         string         `gorm:"type:varchar(200);not null" json:"title"`
	Description   string         `gorm:"type:text" json:"description"`
	Price         float64        `gorm:"type:decimal(10,2);not null" json:"price"`
	OriginalPrice *float64       `gorm:"type:decimal(10,2)" json:"original_price"`
	SoldCount     int            `gorm:"default:0" json:"sold_count"`
	FileURL       string         `gorm:"type:varchar(500)" json:"file_url"`
	ImageURL      string         `gorm:"type:varchar(500)" json:"image_url"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Product) TableName() string {
	return "products"
}

// NormalizeSlotTime canonicalizes a slot time to UTC at second precision.
// Slot rows and order slot times both pass through this, so the booking
// lookup at confirmation compares equal instants even when the checkout
// submission carried a different zone offset or sub-second fraction.
func NormalizeSlotTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// Slot is a discrete bookable time for a service.
type Slot struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ServiceID string    `gorm:"type:varchar(36);not null;index" json:"service_id"`
	StartTime time.Time `gorm:"not null;index" json:"start_time"`
	IsBooked  bool      `gorm:"default:false" json:"is_booked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Service *Service `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
}

func (Slot) TableName() string {
	return "slots"
}
