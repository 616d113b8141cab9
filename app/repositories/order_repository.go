package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/diner/app/models"
)

// OrderRepository handles database operations for Order and OrderItem.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) WithTx(tx *gorm.DB) *OrderRepository {
	return &OrderRepository{db: tx}
}

// withMenuItems preloads order lines and their menu items, including items
// that have since been deleted from the menu.
func withMenuItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.id ASC")
	}).Preload("Items.MenuItem", func(db *gorm.DB) *gorm.DB {
		return db.Unscoped()
	})
}

// Create inserts the order and its Items in one statement batch.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByID loads an order with its items.
func (r *OrderRepository) FindByID(ctx context.Context, id uint) (models.Order, error) {
	var order models.Order
	err := withMenuItems(r.db.WithContext(ctx)).First(&order, id).Error
	return order, err
}

// ListByUser returns a user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	orders := []models.Order{}
	err := withMenuItems(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&orders).Error
	return orders, err
}

// TransitionStatus moves the order from one status to another only if it is
// still in from. It reports whether a row changed.
func (r *OrderRepository) TransitionStatus(ctx context.Context, id uint, from, to models.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected == 1, res.Error
}

// SetStatus writes the status unconditionally.
func (r *OrderRepository) SetStatus(ctx context.Context, id uint, status models.OrderStatus) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// SetCheckoutID stores the provider checkout id, replacing any earlier one.
func (r *OrderRepository) SetCheckoutID(ctx context.Context, id uint, checkoutID string) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", id).
		Update("sumup_checkout_id", checkoutID).Error
}
