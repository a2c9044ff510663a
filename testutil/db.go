package testutil

import (
	"testing"
	"time"

	"github.com/kendall-kelly/cafe-manager-api/config"
	"github.com/kendall-kelly/cafe-manager-api/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewTestDB opens a private in-memory sqlite database with every table migrated
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), config.GormConfig(nil))
	require.NoError(t, err, "Failed to connect to test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection, otherwise every new connection sees its own empty memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, models.AutoMigrate(db), "Failed to migrate test database")
	return db
}

// CreateUser inserts an account whose password is "password"
func CreateUser(t *testing.T, db *gorm.DB, username, role string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Username:     username,
		Email:        username + "@cafe.test",
		PasswordHash: string(hash),
		Role:         role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateStaff inserts an active staff member
func CreateStaff(t *testing.T, db *gorm.DB, code, name string) *models.Staff {
	t.Helper()
	staff := &models.Staff{StaffCode: code, Name: name, Position: models.PositionBarista, Active: true}
	require.NoError(t, db.Create(staff).Error)
	return staff
}

// CreateMenuItem inserts an available menu item
func CreateMenuItem(t *testing.T, db *gorm.DB, name, price string) *models.MenuItem {
	t.Helper()
	item := &models.MenuItem{
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Category:  models.CategoryCoffee,
		Available: true,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

// CreateOrderAt inserts an order with a fixed timestamp and total, bypassing the order service
func CreateOrderAt(t *testing.T, db *gorm.DB, staffID uint, at time.Time, total string, items ...models.OrderItem) *models.Order {
	t.Helper()
	order := &models.Order{
		CustomerName: "Walk-in",
		StaffID:      staffID,
		Status:       models.OrderStatusPending,
		Total:        decimal.RequireFromString(total),
		CreatedAt:    at,
		UpdatedAt:    at,
	}
	require.NoError(t, db.Omit("Items", "Staff").Create(order).Error)
	for i := range items {
		items[i].OrderID = order.ID
		require.NoError(t, db.Omit("MenuItem").Create(&items[i]).Error)
	}
	return order
}
