package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/diner/app/models"
)

// MenuRepository handles database operations for MenuItem.
type MenuRepository struct {
	db *gorm.DB
}

func NewMenuRepository(db *gorm.DB) *MenuRepository {
	return &MenuRepository{db: db}
}

func (r *MenuRepository) WithTx(tx *gorm.DB) *MenuRepository {
	return &MenuRepository{db: tx}
}

// ListAvailable returns the public menu ordered by category, then id.
func (r *MenuRepository) ListAvailable(ctx context.Context) ([]models.MenuItem, error) {
	items := []models.MenuItem{}
	err := r.db.WithContext(ctx).
		Where("is_available = ?", true).
		Order("category ASC").Order("id ASC").
		Find(&items).Error
	return items, err
}

// FindByID returns a non-deleted item regardless of availability.
func (r *MenuRepository) FindByID(ctx context.Context, id uint) (models.MenuItem, error) {
	var item models.MenuItem
	err := r.db.WithContext(ctx).First(&item, id).Error
	return item, err
}

// FindByIDs returns the non-deleted items among ids, keyed by id.
func (r *MenuRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]models.MenuItem, error) {
	var items []models.MenuItem
	if len(ids) > 0 {
		if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
			return nil, err
		}
	}
	out := make(map[uint]models.MenuItem, len(items))
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

func (r *MenuRepository) Create(ctx context.Context, item *models.MenuItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// Save writes every column of item, including zero values such as
// IsAvailable=false.
func (r *MenuRepository) Save(ctx context.Context, item *models.MenuItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// Delete soft-deletes the item. Order history keeps its reference.
func (r *MenuRepository) Delete(ctx context.Context, item *models.MenuItem) error {
	return r.db.WithContext(ctx).Delete(item).Error
}
