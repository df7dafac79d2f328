package models

import (
	"time"
)

// OrderType is the closed set of things the storefront sells. The loose
// type string arriving at the API boundary is resolved into one of these
// exactly once, together with its catalog reference.
type OrderType string

const (
	OrderTypeSession       OrderType = "session"
	OrderTypeNotes         OrderType = "notes"
	OrderTypePriorityDM    OrderType = "priority-dm"
	OrderTypeCustomService OrderType = "custom-service"
	OrderTypeCustomProduct OrderType = "custom-product"
	OrderTypeProduct       OrderType = "product"
	OrderTypeService       OrderType = "service"
)

// Valid reports whether t is a member of the closed enumeration.
func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeSession, OrderTypeNotes, OrderTypePriorityDM,
		OrderTypeCustomService, OrderTypeCustomProduct,
		OrderTypeProduct, OrderTypeService:
		return true
	}
	return false
}

// ServiceBacked reports whether orders of this type reference a Service row.
func (t OrderType) ServiceBacked() bool {
	return t == OrderTypeService || t == OrderTypeCustomService
}

// ProductBacked reports whether orders of this type reference a Product row.
func (t OrderType) ProductBacked() bool {
	return t == OrderTypeProduct || t == OrderTypeCustomProduct
}

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusCancelled = "cancelled"
	OrderStatusRefunded  = "refunded"

	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// Order is the central entity of the checkout flow. Customer contact fields
// are captured redundantly from the submitting user so historical orders
// stay stable even if the User row is later edited.
type Order struct {
	ID               string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID           *string    `gorm:"type:varchar(36);index" json:"user_id"`
	Type             OrderType  `gorm:"type:varchar(20);not null" json:"type"`
	ServiceID        *string    `gorm:"type:varchar(36);index" json:"service_id"`
	ProductID        *string    `gorm:"type:varchar(36);index" json:"product_id"`
	Amount           float64    `gorm:"type:decimal(10,2);not null" json:"amount"`
	CustomerName     string     `gorm:"type:varchar(100);not null" json:"customer_name"`
	CustomerEmail    string     `gorm:"type:varchar(100);not null" json:"customer_email"`
	CustomerPhone    string     `gorm:"type:varchar(20);not null" json:"customer_phone"`
	SlotDateTime     *time.Time `json:"slot_date_time"`
	AdditionalInfo   string     `gorm:"type:text" json:"additional_info"`
	GatewayOrderID   *string    `gorm:"type:varchar(64);index" json:"gateway_order_id"`
	GatewayPaymentID *string    `gorm:"type:varchar(64)" json:"gateway_payment_id"`
	PaymentStatus    string     `gorm:"type:varchar(20);default:'pending'" json:"payment_status"`
	Status           string     `gorm:"type:varchar(20);default:'pending'" json:"status"`
	Fulfilled        bool       `gorm:"default:false" json:"fulfilled"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	User    *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Service *Service `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}
