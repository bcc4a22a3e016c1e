package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the overall lifecycle status of an order
type OrderStatus string

const (
	OrderStatusPlaced     OrderStatus = "PLACED"     // Order created, awaiting payment
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"  // Payment successful, order accepted
	OrderStatusProcessing OrderStatus = "PROCESSING" // Being fulfilled/packed
	OrderStatusShipped    OrderStatus = "SHIPPED"    // Dispatched to carrier
	OrderStatusDelivered  OrderStatus = "DELIVERED"  // Successfully delivered
	OrderStatusCompleted  OrderStatus = "COMPLETED"  // Closed after delivery
	OrderStatusCancelled  OrderStatus = "CANCELLED"  // Cancelled before fulfillment
)

// PaymentStatus represents the payment state of an order
type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "Paid"
	PaymentStatusPending PaymentStatus = "Payment Pending"
)

// TotalPending is the literal total recorded when shipping could not be
// auto-computed at checkout; the operator fills the real total later.
const TotalPending = "Pending"

// ValidOrderTransitions defines valid state transitions for OrderStatus.
// Flow: PLACED -> CONFIRMED -> PROCESSING -> SHIPPED -> DELIVERED -> COMPLETED.
// CANCELLED can be reached from any non-terminal state.
var ValidOrderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPlaced:     {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusShipped, OrderStatusCancelled}, // Can skip PROCESSING
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered:  {OrderStatusCompleted},
	OrderStatusCompleted:  {}, // Terminal state
	OrderStatusCancelled:  {}, // Terminal state
}

// CanTransitionOrderStatus checks if a transition between order statuses is valid
func CanTransitionOrderStatus(from, to OrderStatus) bool {
	validTransitions, exists := ValidOrderTransitions[from]
	if !exists {
		return false
	}
	for _, validTo := range validTransitions {
		if validTo == to {
			return true
		}
	}
	return false
}

// AddressEditableStatuses lists the statuses in which the shipping address
// may still be revised post-creation.
var AddressEditableStatuses = map[OrderStatus]bool{
	OrderStatusPlaced:     true,
	OrderStatusConfirmed:  true,
	OrderStatusProcessing: true,
}

// OrderedProduct is a line snapshot frozen at order time. Prices are copied,
// not referenced, so later catalog edits cannot change a placed order.
type OrderedProduct struct {
	ProductID        string  `json:"productId"`
	Name             string  `json:"name"`
	Image            string  `json:"image,omitempty"`
	VariantName      string  `json:"variantName,omitempty"`
	Size             string  `json:"size,omitempty"`
	UnitPrice        float64 `json:"unitPrice"`
	Quantity         int     `json:"quantity"`
	Total            float64 `json:"total"`
	FreeCashApplied  float64 `json:"freeCashApplied,omitempty"`
	MainCategoryID   string  `json:"mainCategoryId,omitempty"`
	SubCategoryID    string  `json:"subCategoryId,omitempty"`
}

// OrderedProductList type for PostgreSQL JSONB
type OrderedProductList []OrderedProduct

func (l OrderedProductList) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *OrderedProductList) Scan(value interface{}) error {
	if value == nil {
		*l = make(OrderedProductList, 0)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// Order represents a customer order created from a cart at checkout.
// TotalPrice is a string because it may hold the literal "Pending" when the
// shipping price could not be auto-computed.
type Order struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID string    `json:"tenantId" gorm:"not null;index:idx_orders_tenant;index:idx_orders_tenant_status"`
	UserID   uuid.UUID `json:"userId" gorm:"type:uuid;not null;index"`

	// Denormalized contact fields, frozen at order time
	UserName string `json:"userName" gorm:"not null"`
	Email    string `json:"email" gorm:"not null"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address" gorm:"type:text"`
	City     string `json:"city,omitempty"`
	Pincode  string `json:"pincode,omitempty"`

	Products OrderedProductList `json:"products" gorm:"type:jsonb;not null"`

	Status        OrderStatus   `json:"status" gorm:"type:varchar(20);not null;default:'PLACED';index:idx_orders_tenant_status"`
	PaymentStatus PaymentStatus `json:"paymentStatus" gorm:"type:varchar(30);not null;default:'Payment Pending'"`

	Price         float64  `json:"price" gorm:"type:decimal(12,2);not null"`
	ShippingPrice *float64 `json:"shippingPrice,omitempty" gorm:"type:decimal(12,2)"`
	TotalPrice    string   `json:"totalPrice" gorm:"not null"`

	FreeCashID     *uuid.UUID `json:"freeCashId,omitempty" gorm:"type:uuid"`
	FreeCashAmount float64    `json:"freeCashAmount" gorm:"type:decimal(10,2);default:0"`

	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// UpdateOrderStatusRequest represents a status transition request
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required"`
	Notes  *string     `json:"notes,omitempty"`
}

// UpdatePaymentStatusRequest marks an order paid/unpaid
type UpdatePaymentStatusRequest struct {
	PaymentStatus PaymentStatus `json:"paymentStatus" binding:"required"`
}

// ReviseOrderAddressRequest revises the shipping address of an order that has
// not yet shipped.
type ReviseOrderAddressRequest struct {
	Address string `json:"address" binding:"required"`
	City    string `json:"city,omitempty"`
	Pincode string `json:"pincode,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// ReviseShippingRequest sets the shipping price on an order whose total was
// left "Pending" at checkout.
type ReviseShippingRequest struct {
	ShippingPrice float64 `json:"shippingPrice" binding:"min=0"`
}

type OrderResponse struct {
	Success bool    `json:"success"`
	Data    *Order  `json:"data"`
	Message *string `json:"message,omitempty"`
}

type OrderListResponse struct {
	Success    bool            `json:"success"`
	Data       []Order         `json:"data"`
	Pagination *PaginationInfo `json:"pagination,omitempty"`
}
