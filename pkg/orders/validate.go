package orders

import (
	"time"
	"unicode"

	"github.com/example/storefront/pkg/models"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// CreateRequest is the typed checkout submission. The loose type string is
// resolved into a models.OrderType exactly once, during validation.
type CreateRequest struct {
	Type           string   `json:"type" validate:"required"`
	ServiceID      *string  `json:"serviceId"`
	ProductID      *string  `json:"productId"`
	EntityID       *string  `json:"entityId"`
	Amount         float64  `json:"amount" validate:"gt=0"`
	CustomerName   string   `json:"customerName" validate:"required"`
	CustomerEmail  string   `json:"customerEmail" validate:"required,email"`
	CustomerPhone  string   `json:"customerPhone" validate:"required"`
	SlotDateTime   *string  `json:"slotDateTime"`
	AdditionalInfo string   `json:"additionalInfo"`
}

// Validate accumulates every violation into one ValidationError instead of
// short-circuiting on the first.
func (r *CreateRequest) Validate() *ValidationError {
	fields := make(map[string]string)

	if err := validate.Struct(r); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				switch fe.Field() {
				case "Type":
					fields["type"] = "Type is required"
				case "Amount":
					fields["amount"] = "Amount must be greater than zero"
				case "CustomerName":
					fields["customerName"] = "Name is required"
				case "CustomerEmail":
					if fe.Tag() == "email" {
						fields["customerEmail"] = "Invalid email"
					} else {
						fields["customerEmail"] = "Email is required"
					}
				case "CustomerPhone":
					fields["customerPhone"] = "Phone number is required"
				}
			}
		}
	}

	if r.Type != "" && !models.OrderType(r.Type).Valid() {
		fields["type"] = "Unknown order type"
	}
	if r.CustomerPhone != "" && digitCount(r.CustomerPhone) < 10 {
		fields["customerPhone"] = "Phone number must be at least 10 digits"
	}
	if r.SlotDateTime != nil && *r.SlotDateTime != "" {
		if _, err := time.Parse(time.RFC3339, *r.SlotDateTime); err != nil {
			fields["slotDateTime"] = "Invalid slot date/time"
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

// resolveRefs picks the catalog reference the order type calls for. Service
// types bind a service id, product types a product id, and the ad hoc types
// (session, notes, priority-dm) bind neither unless an entity id was given.
func resolveRefs(t models.OrderType, serviceID, productID, entityID *string) (svcRef, prodRef *string) {
	pick := func(primary, fallback *string) *string {
		if primary != nil && *primary != "" {
			return primary
		}
		if fallback != nil && *fallback != "" {
			return fallback
		}
		return nil
	}

	switch {
	case t.ServiceBacked():
		return pick(serviceID, entityID), nil
	case t.ProductBacked():
		return nil, pick(productID, entityID)
	default:
		return nil, nil
	}
}
