package models

import "time"

// Order status values. Displayed as a forward progression from pending to
// delivered, with cancelled reachable from any state. No transition graph is
// enforced on writes; the status history ledger records whatever happens.
const (
	OrderStatusPending        = "pending"
	OrderStatusConfirmed      = "confirmed"
	OrderStatusPacked         = "packed"
	OrderStatusShipped        = "shipped"
	OrderStatusOutForDelivery = "out_for_delivery"
	OrderStatusDelivered      = "delivered"
	OrderStatusCancelled      = "cancelled"
)

// OrderStatuses lists every accepted status value, in display order.
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPacked,
	OrderStatusShipped,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// IsValidOrderStatus reports whether s is one of the fixed status values.
func IsValidOrderStatus(s string) bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Order is the model for the 'orders' table. Everything except Status is
// immutable once the checkout transaction commits; TotalAmount is the
// snapshot taken at checkout and is never recomputed.
type Order struct {
	ID              int64     `json:"id" db:"id"`
	OrderNumber     string    `json:"orderNumber" db:"order_number"`
	UserID          int64     `json:"userId" db:"user_id"`
	Status          string    `json:"status" db:"order_status"`
	TotalAmount     float64   `json:"totalAmount" db:"total_amount"`
	ShippingAddress string    `json:"shippingAddress" db:"shipping_address"`
	PhoneNumber     string    `json:"phoneNumber" db:"phone_number"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
}

// OrderItem is the model for the 'order_items' table. Name, unit price and
// subtotal are captured at purchase time so the record survives later
// catalog renames and price changes. Rows are never mutated after checkout.
type OrderItem struct {
	ID          int64     `json:"id" db:"id"`
	OrderID     int64     `json:"orderId" db:"order_id"`
	ProductID   int64     `json:"productId" db:"product_id"`
	ProductName string    `json:"productName" db:"product_name"`
	Quantity    int       `json:"quantity" db:"quantity"`
	UnitPrice   float64   `json:"unitPrice" db:"unit_price"`
	Subtotal    float64   `json:"subtotal" db:"subtotal"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// OrderStatusHistory is the model for the 'order_status_history' table: one
// append-only row per status transition. A nil OldStatus marks order
// creation; a nil ChangedBy marks a system-generated entry.
type OrderStatusHistory struct {
	ID        int64     `json:"id" db:"id"`
	OrderID   int64     `json:"orderId" db:"order_id"`
	OldStatus *string   `json:"oldStatus" db:"old_status"`
	NewStatus string    `json:"newStatus" db:"new_status"`
	ChangedBy *int64    `json:"changedBy" db:"changed_by"`
	ChangedAt time.Time `json:"changedAt" db:"changed_at"`
	Notes     string    `json:"notes" db:"notes"`
}
