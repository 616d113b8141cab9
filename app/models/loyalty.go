package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoyaltyPoints is a member's running balance. One row per user, created on
// first award.
type LoyaltyPoints struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"userId"`
	Points    int       `gorm:"not null;default:0" json:"points"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (LoyaltyPoints) TableName() string { return "loyalty_points" }

// LoyaltyAward records that an order's points were credited. The unique
// OrderID makes crediting idempotent.
type LoyaltyAward struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"uniqueIndex;not null" json:"orderId"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	Points    int       `gorm:"not null" json:"points"`
	CreatedAt time.Time `json:"createdAt"`
}

// PointsFor returns floor(total) as whole points.
func PointsFor(total decimal.Decimal) int {
	if total.IsNegative() {
		return 0
	}
	return int(total.Floor().IntPart())
}
