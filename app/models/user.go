package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money renders as a JSON number, e.g. 9.5 rather than "9.5".
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// User is a registered customer or administrator.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:255;not null" json:"username"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"` // stored lowercased
	Password  string    `gorm:"size:255;not null" json:"-"`                 // bcrypt hash, never serialised
	Role      string    `gorm:"size:20;not null;default:CUSTOMER" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	LoyaltyPoints *LoyaltyPoints `gorm:"foreignKey:UserID" json:"-"`
}
