package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/diner/app/models"
	"github.com/shashiranjanraj/diner/pkg/migration"
)

func init() {
	migration.Register("20260201000000_create_loyalty_awards_table", &CreateLoyaltyAwardsTable{})
}

// CreateLoyaltyAwardsTable adds the per-order award ledger used to credit
// points at most once per order.
type CreateLoyaltyAwardsTable struct{}

func (m *CreateLoyaltyAwardsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.LoyaltyAward{})
}

func (m *CreateLoyaltyAwardsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("loyalty_awards")
}
