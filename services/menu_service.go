package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/kendall-kelly/cafe-manager-api/models"
	"github.com/kendall-kelly/cafe-manager-api/utils"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MenuItemInput holds the fields of a new menu item
type MenuItemInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Available   *bool // nil means available
}

// MenuItemUpdate holds optional changes; nil fields keep their stored value
type MenuItemUpdate struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Category    *string
	Available   *bool
}

// MenuFilter narrows a menu listing
type MenuFilter struct {
	Category      string
	AvailableOnly bool
}

// MenuService manages the menu
type MenuService struct {
	db     *gorm.DB
	images ImageService
}

// NewMenuService creates a MenuService. images may be nil when photo storage is off.
func NewMenuService(db *gorm.DB, images ImageService) *MenuService {
	return &MenuService{db: db, images: images}
}

func validateMenuName(name string) error {
	if name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if utf8.RuneCountInString(name) > 100 {
		return &ValidationError{Field: "name", Message: "name must be at most 100 characters"}
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return &ValidationError{Field: "price", Message: "price must not be negative"}
	}
	return nil
}

func validateCategory(category string) error {
	if !models.MenuCategory(category).IsValid() {
		names := make([]string, len(models.MenuCategories))
		for i, c := range models.MenuCategories {
			names[i] = string(c)
		}
		return &ValidationError{Field: "category", Message: "category must be one of " + strings.Join(names, ", ")}
	}
	return nil
}

// Create adds a menu item. Managers and admins only.
func (s *MenuService) Create(ctx context.Context, actor Actor, in MenuItemInput) (*models.MenuItem, error) {
	if err := actor.Require(models.RoleManager, models.RoleAdmin); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if err := validateMenuName(name); err != nil {
		return nil, err
	}
	if err := validatePrice(in.Price); err != nil {
		return nil, err
	}
	if err := validateCategory(in.Category); err != nil {
		return nil, err
	}

	item := models.MenuItem{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price.Round(2),
		Category:    models.MenuCategory(in.Category),
		Available:   in.Available == nil || *in.Available,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&item).Error; err != nil {
			return persistenceError("create menu item", err)
		}
		return recordAudit(tx, actor, models.ActionAddMenuItem,
			fmt.Sprintf("Added menu item %s", item.Name),
			map[string]interface{}{"menu_item_id": item.ID, "price": item.Price.StringFixed(2)})
	})
	if err != nil {
		return nil, passthrough("create menu item", err)
	}
	return &item, nil
}

// Update applies the non-nil fields of upd. Managers and admins only.
func (s *MenuService) Update(ctx context.Context, actor Actor, id uint, upd MenuItemUpdate) (*models.MenuItem, error) {
	if err := actor.Require(models.RoleManager, models.RoleAdmin); err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if err := validateMenuName(name); err != nil {
			return nil, err
		}
		changes["name"] = name
	}
	if upd.Description != nil {
		changes["description"] = strings.TrimSpace(*upd.Description)
	}
	if upd.Price != nil {
		if err := validatePrice(*upd.Price); err != nil {
			return nil, err
		}
		changes["price"] = upd.Price.Round(2)
	}
	if upd.Category != nil {
		if err := validateCategory(*upd.Category); err != nil {
			return nil, err
		}
		changes["category"] = *upd.Category
	}
	if upd.Available != nil {
		changes["available"] = *upd.Available
	}

	var item models.MenuItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			if isNotFound(err) {
				return &NotFoundError{Resource: "menu item", ID: id}
			}
			return persistenceError("load menu item", err)
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Model(&item).Updates(changes).Error; err != nil {
			return persistenceError("update menu item", err)
		}
		if err := tx.First(&item, id).Error; err != nil {
			return persistenceError("reload menu item", err)
		}
		return recordAudit(tx, actor, models.ActionUpdateMenuItem,
			fmt.Sprintf("Updated menu item %s", item.Name),
			map[string]interface{}{"menu_item_id": id, "fields": changedFields(changes)})
	})
	if err != nil {
		return nil, passthrough("update menu item", err)
	}
	s.attachImageURL(ctx, &item)
	return &item, nil
}

// Delete removes a menu item that no order references. Managers and admins only.
func (s *MenuService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := actor.Require(models.RoleManager, models.RoleAdmin); err != nil {
		return err
	}

	var item models.MenuItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			if isNotFound(err) {
				return &NotFoundError{Resource: "menu item", ID: id}
			}
			return persistenceError("load menu item", err)
		}
		var refs int64
		if err := tx.Model(&models.OrderItem{}).Where("menu_item_id = ?", id).Count(&refs).Error; err != nil {
			return persistenceError("count menu item references", err)
		}
		if refs > 0 {
			return menuItemInUse(item.Name)
		}
		if err := tx.Delete(&item).Error; err != nil {
			if isForeignKeyViolation(err) {
				return menuItemInUse(item.Name)
			}
			return persistenceError("delete menu item", err)
		}
		return recordAudit(tx, actor, models.ActionDeleteMenuItem,
			fmt.Sprintf("Deleted menu item %s", item.Name),
			map[string]interface{}{"menu_item_id": id})
	})
	if err != nil {
		return passthrough("delete menu item", err)
	}

	if item.ImageS3Key != nil && s.images != nil {
		if err := s.images.DeleteImage(ctx, *item.ImageS3Key); err != nil {
			log.Warn().Err(err).Uint("menu_item_id", id).Msg("Failed to delete menu item image")
		}
	}
	return nil
}

func menuItemInUse(name string) error {
	return &ConflictError{
		Code:    "MENU_ITEM_IN_USE",
		Message: fmt.Sprintf("Menu item %s is referenced by existing orders; mark it unavailable instead", name),
	}
}

// SetImage uploads a photo for a menu item and replaces any previous one. Managers and admins only.
func (s *MenuService) SetImage(ctx context.Context, actor Actor, id uint, fileHeader *multipart.FileHeader) (*models.MenuItem, error) {
	if err := actor.Require(models.RoleManager, models.RoleAdmin); err != nil {
		return nil, err
	}
	if s.images == nil {
		return nil, ErrImageStorageUnavailable
	}

	var item models.MenuItem
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if isNotFound(err) {
			return nil, &NotFoundError{Resource: "menu item", ID: id}
		}
		return nil, persistenceError("load menu item", err)
	}

	key, err := s.images.UploadImage(ctx, id, fileHeader)
	if err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			return nil, &ValidationError{Field: "image", Message: uploadErr.Message}
		}
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	// gorm writes the new key through the existing pointer, so copy the old value first
	var previous string
	if item.ImageS3Key != nil {
		previous = *item.ImageS3Key
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&item).Update("image_s3_key", key).Error; err != nil {
			return persistenceError("update menu item image", err)
		}
		return recordAudit(tx, actor, models.ActionUploadMenuImage,
			fmt.Sprintf("Uploaded image for menu item %s", item.Name),
			map[string]interface{}{"menu_item_id": id, "image_key": key})
	})
	if err != nil {
		if delErr := s.images.DeleteImage(ctx, key); delErr != nil {
			log.Warn().Err(delErr).Str("key", key).Msg("Failed to clean up orphaned image")
		}
		return nil, passthrough("update menu item image", err)
	}
	if previous != "" && previous != key {
		if err := s.images.DeleteImage(ctx, previous); err != nil {
			log.Warn().Err(err).Str("key", previous).Msg("Failed to delete replaced image")
		}
	}

	item.ImageS3Key = &key
	s.attachImageURL(ctx, &item)
	return &item, nil
}

// Get returns one menu item
func (s *MenuService) Get(ctx context.Context, actor Actor, id uint) (*models.MenuItem, error) {
	if err := actor.Require(models.Roles...); err != nil {
		return nil, err
	}
	var item models.MenuItem
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if isNotFound(err) {
			return nil, &NotFoundError{Resource: "menu item", ID: id}
		}
		return nil, persistenceError("load menu item", err)
	}
	s.attachImageURL(ctx, &item)
	return &item, nil
}

// List returns the menu ordered by category then name
func (s *MenuService) List(ctx context.Context, actor Actor, filter MenuFilter) ([]models.MenuItem, error) {
	if err := actor.Require(models.Roles...); err != nil {
		return nil, err
	}
	if filter.Category != "" {
		if err := validateCategory(filter.Category); err != nil {
			return nil, err
		}
	}

	query := s.db.WithContext(ctx).Model(&models.MenuItem{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.AvailableOnly {
		query = query.Where("available = ?", true)
	}

	items := make([]models.MenuItem, 0)
	if err := query.Order("category ASC, name ASC, id ASC").Find(&items).Error; err != nil {
		return nil, persistenceError("list menu items", err)
	}
	for i := range items {
		s.attachImageURL(ctx, &items[i])
	}
	return items, nil
}

func (s *MenuService) attachImageURL(ctx context.Context, item *models.MenuItem) {
	if s.images == nil || item.ImageS3Key == nil || *item.ImageS3Key == "" {
		return
	}
	url, err := s.images.GetImageURL(ctx, *item.ImageS3Key)
	if err != nil {
		log.Warn().Err(err).Uint("menu_item_id", item.ID).Msg("Failed to generate image URL")
		return
	}
	item.ImageURL = &url
}

func changedFields(changes map[string]interface{}) []string {
	fields := make([]string, 0, len(changes))
	for k := range changes {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}
