package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MenuCategory groups menu items on the menu board
type MenuCategory string

const (
	CategoryCoffee   MenuCategory = "coffee"
	CategoryTea      MenuCategory = "tea"
	CategoryPastry   MenuCategory = "pastry"
	CategorySandwich MenuCategory = "sandwich"
	CategoryDessert  MenuCategory = "dessert"
)

// MenuCategories lists every recognized category
var MenuCategories = []MenuCategory{CategoryCoffee, CategoryTea, CategoryPastry, CategorySandwich, CategoryDessert}

// IsValid reports whether c is a recognized category
func (c MenuCategory) IsValid() bool {
	for _, known := range MenuCategories {
		if known == c {
			return true
		}
	}
	return false
}

// MenuItem is something a customer can order
type MenuItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"size:100;not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Category    MenuCategory    `gorm:"size:50;not null;index" json:"category"`
	Available   bool            `gorm:"not null" json:"available"`
	ImageS3Key  *string         `json:"image_s3_key,omitempty"`        // nullable, S3 key of the uploaded photo
	ImageURL    *string         `gorm:"-" json:"image_url,omitempty"` // computed field, presigned URL for the photo
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the MenuItem model
func (MenuItem) TableName() string {
	return "menu_items"
}
