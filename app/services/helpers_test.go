package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/diner/app/models"
	"github.com/shashiranjanraj/diner/pkg/auth"
)

func addMenuItem(t *testing.T, db *gorm.DB, name, price, category string) models.MenuItem {
	t.Helper()
	item := models.MenuItem{
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Category:    category,
		ImageURL:    "/images/" + name + ".jpg",
		IsAvailable: true,
	}
	require.NoError(t, db.Create(&item).Error)
	return item
}

func addUser(t *testing.T, db *gorm.DB, email, role string) models.User {
	t.Helper()
	hash, err := auth.HashPassword("secret123")
	require.NoError(t, err)
	u := models.User{Username: "user-" + email, Email: email, Password: hash, Role: role}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func balance(t *testing.T, db *gorm.DB, userID uint) int {
	t.Helper()
	var lp models.LoyaltyPoints
	err := db.Where("user_id = ?", userID).Take(&lp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0
	}
	require.NoError(t, err)
	return lp.Points
}

func ptr[T any](v T) *T { return &v }

func orderOf(id uint, qty int) OrderItemInput {
	return OrderItemInput{MenuItemID: ptr(int64(id)), Quantity: ptr(qty)}
}

// newOrder builds a request whose client total is total.
func newOrder(total string, items ...OrderItemInput) CreateOrderInput {
	return CreateOrderInput{Items: items, Total: ptr(decimal.RequireFromString(total))}
}

func loyaltyRows(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.LoyaltyPoints{}).Count(&n).Error)
	return n
}

var bg = context.Background()
