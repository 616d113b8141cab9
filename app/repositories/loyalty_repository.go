package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shashiranjanraj/diner/app/models"
)

// LoyaltyRepository handles balances and the per-order award ledger.
type LoyaltyRepository struct {
	db *gorm.DB
}

func NewLoyaltyRepository(db *gorm.DB) *LoyaltyRepository {
	return &LoyaltyRepository{db: db}
}

func (r *LoyaltyRepository) WithTx(tx *gorm.DB) *LoyaltyRepository {
	return &LoyaltyRepository{db: tx}
}

// Balance returns the user's points, 0 when no row exists.
func (r *LoyaltyRepository) Balance(ctx context.Context, userID uint) (int, error) {
	var lp models.LoyaltyPoints
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&lp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	return lp.Points, err
}

// Add credits points to the user, creating the balance row on first use.
// Zero still creates the row.
func (r *LoyaltyRepository) Add(ctx context.Context, userID uint, points int) error {
	if points < 0 {
		return fmt.Errorf("loyalty: negative credit %d for user %d", points, userID)
	}
	lp := models.LoyaltyPoints{UserID: userID, Points: points}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"points":     gorm.Expr("loyalty_points.points + ?", points),
			"updated_at": time.Now(),
		}),
	}).Create(&lp).Error
}

// RecordAward inserts the ledger row for an order. It reports false when the
// order already has one.
func (r *LoyaltyRepository) RecordAward(ctx context.Context, award *models.LoyaltyAward) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}},
		DoNothing: true,
	}).Create(award)
	return res.RowsAffected == 1, res.Error
}
