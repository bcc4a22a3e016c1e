package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CartStatus tracks abandoned-cart recovery state
type CartStatus string

const (
	CartStatusActive    CartStatus = "ACTIVE"
	CartStatusReminded  CartStatus = "REMINDED"
	CartStatusRecovered CartStatus = "RECOVERED"
)

// CartLine is one product in a cart. VariantName/Size address the purchasable
// unit inside variant products; FreeCashApplied is the credit the client
// requested against this line (validated server-side at checkout).
type CartLine struct {
	ProductID       string  `json:"productId"`
	Name            string  `json:"name"`
	Image           string  `json:"image,omitempty"`
	VariantName     string  `json:"variantName,omitempty"`
	Size            string  `json:"size,omitempty"`
	UnitPrice       float64 `json:"unitPrice"`
	Quantity        int     `json:"quantity"`
	FreeCashApplied float64 `json:"freeCashApplied,omitempty"`
}

// Total returns the line total before free cash.
func (l CartLine) Total() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// CartLineList type for PostgreSQL JSONB
type CartLineList []CartLine

func (l CartLineList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *CartLineList) Scan(value interface{}) error {
	if value == nil {
		*l = make(CartLineList, 0)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// Cart is the single open cart of a user. Reminder fields drive
// abandoned-cart recovery.
type Cart struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID string    `json:"tenantId" gorm:"not null;index:idx_carts_tenant;uniqueIndex:idx_carts_tenant_user"`
	UserID   uuid.UUID `json:"userId" gorm:"type:uuid;not null;uniqueIndex:idx_carts_tenant_user"`

	UserEmail string       `json:"userEmail,omitempty"`
	Items     CartLineList `json:"items" gorm:"type:jsonb;not null"`

	Status           CartStatus `json:"status" gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	ReminderCount    int        `json:"reminderCount" gorm:"default:0"`
	LastReminderSent *time.Time `json:"lastReminderSent,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"index"`
}

// TableName returns the table name for the Cart model
func (Cart) TableName() string {
	return "carts"
}

// Subtotal returns the cart total before shipping and free cash.
func (c *Cart) Subtotal() float64 {
	var sum float64
	for _, l := range c.Items {
		sum += l.Total()
	}
	return sum
}

// AddCartLineRequest adds or replaces a line in the user's cart
type AddCartLineRequest struct {
	ProductID   string  `json:"productId" binding:"required"`
	VariantName string  `json:"variantName,omitempty"`
	Size        string  `json:"size,omitempty"`
	Quantity    int     `json:"quantity" binding:"required,gt=0"`
	FreeCash    float64 `json:"freeCash,omitempty"`
}

// CheckoutRequest creates an order from the cart
type CheckoutRequest struct {
	UserName string `json:"userName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address" binding:"required"`
	City     string `json:"city,omitempty"`
	Pincode  string `json:"pincode,omitempty"`
}

type CartResponse struct {
	Success bool    `json:"success"`
	Data    *Cart   `json:"data"`
	Message *string `json:"message,omitempty"`
}
