package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/diner/app/models"
	"github.com/shashiranjanraj/diner/app/repositories"
	"github.com/shashiranjanraj/diner/pkg/cache"
	"github.com/shashiranjanraj/diner/pkg/logger"
	"github.com/shashiranjanraj/diner/pkg/storage"
	"github.com/shashiranjanraj/diner/pkg/validate"
)

// MenuCacheKey holds the cached public menu.
const MenuCacheKey = "menu:available"

// MaxImageBytes caps menu image uploads.
const MaxImageBytes = 5 << 20

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// CreateMenuItemInput is the admin create payload.
type CreateMenuItemInput struct {
	Name        string           `json:"name"        validate:"required" message:"Name is required"`
	Description string           `json:"description" validate:"required" message:"Description is required"`
	Price       *decimal.Decimal `json:"price"       validate:"required,min=0" message:"Price must be a positive number"`
	Category    string           `json:"category"    validate:"required,in=BURGER,SIDE,DRINK,DESSERT" message:"Invalid category"`
	ImageURL    string           `json:"imageUrl"    validate:"required,url" message:"Valid image URL is required"`
}

func (CreateMenuItemInput) TypeMessages() map[string]string {
	return map[string]string{"price": "Price must be a positive number"}
}

// UpdateMenuItemInput is the admin update payload. Every field is replaced.
type UpdateMenuItemInput struct {
	Name        string           `json:"name"        validate:"required" message:"Name is required"`
	Description string           `json:"description" validate:"required" message:"Description is required"`
	Price       *decimal.Decimal `json:"price"       validate:"required,min=0" message:"Price must be a positive number"`
	Category    string           `json:"category"    validate:"required,in=BURGER,SIDE,DRINK,DESSERT" message:"Invalid category"`
	IsAvailable *bool            `json:"isAvailable" validate:"required,boolean" message:"isAvailable must be a boolean"`
	ImageURL    string           `json:"imageUrl"    validate:"required,url" message:"Valid image URL is required"`
}

func (UpdateMenuItemInput) TypeMessages() map[string]string {
	return map[string]string{
		"price":       "Price must be a positive number",
		"isAvailable": "isAvailable must be a boolean",
	}
}

// ImageUpload is an uploaded menu image.
type ImageUpload struct {
	Filename string
	Body     io.Reader
}

// MenuService serves the public menu and admin menu management.
type MenuService struct {
	menu  *repositories.MenuRepository
	cache *cache.Store
	ttl   time.Duration
	disk  storage.Disk
}

// NewMenuService wires the service. cache may be a no-op store and disk may
// be nil when uploads are not needed.
func NewMenuService(db *gorm.DB, c *cache.Store, ttl time.Duration, disk storage.Disk) *MenuService {
	return &MenuService{
		menu:  repositories.NewMenuRepository(db),
		cache: c,
		ttl:   ttl,
		disk:  disk,
	}
}

// List returns the available items ordered by category, then id.
func (s *MenuService) List(ctx context.Context) ([]models.MenuItem, error) {
	items := []models.MenuItem{}
	err := s.cache.Remember(ctx, MenuCacheKey, s.ttl, &items, func() error {
		var err error
		items, err = s.menu.ListAvailable(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}
	return items, nil
}

// Get returns one non-deleted item, available or not.
func (s *MenuService) Get(ctx context.Context, id uint) (*models.MenuItem, error) {
	item, err := s.menu.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "Menu item"}
	}
	if err != nil {
		return nil, fmt.Errorf("find menu item %d: %w", id, err)
	}
	return &item, nil
}

func (s *MenuService) Create(ctx context.Context, in CreateMenuItemInput) (*models.MenuItem, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return nil, Invalid(errs)
	}

	item := models.MenuItem{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price.Round(2),
		Category:    in.Category,
		ImageURL:    in.ImageURL,
		IsAvailable: true,
	}
	if err := s.menu.Create(ctx, &item); err != nil {
		return nil, fmt.Errorf("create menu item: %w", err)
	}
	s.invalidate(ctx)
	return &item, nil
}

func (s *MenuService) Update(ctx context.Context, id uint, in UpdateMenuItemInput) (*models.MenuItem, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return nil, Invalid(errs)
	}

	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	item.Name = in.Name
	item.Description = in.Description
	item.Price = in.Price.Round(2)
	item.Category = in.Category
	item.IsAvailable = *in.IsAvailable
	item.ImageURL = in.ImageURL

	if err := s.menu.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("update menu item %d: %w", id, err)
	}
	s.invalidate(ctx)
	return item, nil
}

// Delete soft-deletes the item and returns it as it was.
func (s *MenuService) Delete(ctx context.Context, id uint) (*models.MenuItem, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.menu.Delete(ctx, item); err != nil {
		return nil, fmt.Errorf("delete menu item %d: %w", id, err)
	}
	s.invalidate(ctx)
	return item, nil
}

// UploadImage stores a JPEG, PNG or WebP image of at most MaxImageBytes and
// points the item's ImageURL at it. The type is sniffed from the content.
func (s *MenuService) UploadImage(ctx context.Context, id uint, up ImageUpload) (*models.MenuItem, error) {
	if s.disk == nil {
		return nil, errors.New("upload image: no storage disk configured")
	}

	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(up.Body, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, InvalidField("image", "The image field is required.")
	}
	if len(data) > MaxImageBytes {
		return nil, InvalidField("image", "The image may not be greater than 5 MB.")
	}

	contentType := http.DetectContentType(data)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, InvalidField("image", "The image must be a file of type: jpeg, png, webp.")
	}

	key := storage.NewKey("menu", ext)
	if err := s.disk.Put(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	item.ImageURL = s.disk.URL(key)
	if err := s.menu.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("save image url: %w", err)
	}
	s.invalidate(ctx)

	logger.WithCtx(ctx).Info("menu: image uploaded", "menu_item_id", id, "key", key, "bytes", len(data), "filename", up.Filename)
	return item, nil
}

func (s *MenuService) invalidate(ctx context.Context) {
	if err := s.cache.Forget(ctx, MenuCacheKey); err != nil {
		logger.WithCtx(ctx).Warn("menu: cache invalidation failed", "error", err)
	}
}
