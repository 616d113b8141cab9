package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the payment lifecycle state of an order.
type OrderStatus string

const (
	StatusPending       OrderStatus = "PENDING"
	StatusPaid          OrderStatus = "PAID"
	StatusPaymentFailed OrderStatus = "PAYMENT_FAILED"
)

// CanTransitionTo reports whether s may move to next.
// PENDING is the only non-terminal state.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return s == StatusPending && (next == StatusPaid || next == StatusPaymentFailed)
}

func (s OrderStatus) Terminal() bool {
	return s == StatusPaid || s == StatusPaymentFailed
}

// Order is a placed order. UserID is nil for guest orders.
type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UserID          *uint           `gorm:"index" json:"userId"`
	Total           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	Status          OrderStatus     `gorm:"size:20;not null;default:PENDING;index" json:"status"`
	SumupCheckoutID *string         `gorm:"size:255" json:"sumupCheckoutId"`
	CreatedAt       time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`

	Items []OrderItem `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// IsGuest reports whether the order has no owning user.
func (o *Order) IsGuest() bool { return o.UserID == nil }

// OrderItem is one order line. Price is the unit price captured when the
// order was placed.
type OrderItem struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	OrderID    uint            `gorm:"not null;index" json:"orderId"`
	MenuItemID uint            `gorm:"not null;index" json:"menuItemId"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`

	MenuItem *MenuItem `json:"menuItem,omitempty"`
}

// Subtotal is Price × Quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// SumItems totals the order lines.
func SumItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}
