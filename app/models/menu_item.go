package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	CategoryBurger  = "BURGER"
	CategorySide    = "SIDE"
	CategoryDrink   = "DRINK"
	CategoryDessert = "DESSERT"
)

// Categories lists the menu categories in display order.
var Categories = []string{CategoryBurger, CategorySide, CategoryDrink, CategoryDessert}

// MenuItem is a sellable product. Deleting one soft-deletes it so historical
// order lines keep their reference.
type MenuItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"size:255;not null" json:"name"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Category    string          `gorm:"size:20;not null;index" json:"category"`
	ImageURL    string          `gorm:"size:1024" json:"imageUrl"`
	IsAvailable bool            `gorm:"not null;default:true" json:"isAvailable"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}
