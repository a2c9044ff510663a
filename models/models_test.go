package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupModelsDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, AutoMigrate(db))
	return db
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "menu_items", MenuItem{}.TableName())
	assert.Equal(t, "staff", Staff{}.TableName())
	assert.Equal(t, "orders", Order{}.TableName())
	assert.Equal(t, "order_items", OrderItem{}.TableName())
	assert.Equal(t, "audit_logs", AuditLog{}.TableName())
}

func TestIsValidOrderStatus(t *testing.T) {
	for _, s := range OrderStatuses {
		assert.True(t, IsValidOrderStatus(s), s)
	}
	assert.False(t, IsValidOrderStatus("pending"))
	assert.False(t, IsValidOrderStatus("Shipped"))
	assert.False(t, IsValidOrderStatus(""))
}

func TestCategoriesAndPositions(t *testing.T) {
	assert.True(t, CategoryCoffee.IsValid())
	assert.False(t, MenuCategory("soup").IsValid())
	assert.True(t, PositionBarista.IsValid())
	assert.False(t, Position("owner").IsValid())
}

func TestOrderItemLineTotal(t *testing.T) {
	item := OrderItem{UnitPrice: decimal.RequireFromString("3.50"), Quantity: 3}
	assert.True(t, decimal.RequireFromString("10.50").Equal(item.LineTotal()))
}

func TestAutoMigrate_CreatesTables(t *testing.T) {
	db := setupModelsDB(t)
	for _, table := range []string{"users", "menu_items", "staff", "orders", "order_items", "audit_logs"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestMenuItem_DefaultsAndPricePrecision(t *testing.T) {
	db := setupModelsDB(t)

	item := MenuItem{Name: "Latte", Price: decimal.RequireFromString("4.50"), Category: CategoryCoffee, Available: true}
	require.NoError(t, db.Create(&item).Error)

	var loaded MenuItem
	require.NoError(t, db.First(&loaded, item.ID).Error)
	assert.True(t, decimal.RequireFromString("4.50").Equal(loaded.Price))
	assert.True(t, loaded.Available)
	assert.Nil(t, loaded.ImageS3Key)
}

func TestStaff_UniqueStaffCode(t *testing.T) {
	db := setupModelsDB(t)

	require.NoError(t, db.Create(&Staff{StaffCode: "101", Name: "Asha", Position: PositionBarista, Active: true}).Error)
	err := db.Create(&Staff{StaffCode: "101", Name: "Ben", Position: PositionCashier, Active: true}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestOrder_StaffForeignKeyRestrictsDelete(t *testing.T) {
	db := setupModelsDB(t)

	staff := Staff{StaffCode: "202", Name: "Asha", Position: PositionBarista, Active: true}
	require.NoError(t, db.Create(&staff).Error)
	order := Order{CustomerName: "Ravi", StaffID: staff.ID, Status: OrderStatusPending, Total: decimal.NewFromInt(3)}
	require.NoError(t, db.Omit("Items").Create(&order).Error)

	assert.Error(t, db.Delete(&staff).Error, "staff with orders must not be deletable")
}

func TestAuditLog_UserDeletionNullsReference(t *testing.T) {
	db := setupModelsDB(t)

	user := User{Username: "mgr", Email: "mgr@cafe.test", PasswordHash: "x", Role: RoleManager}
	require.NoError(t, db.Create(&user).Error)
	entry := AuditLog{UserID: &user.ID, Username: user.Username, Action: ActionAddStaff, Description: "Added staff Asha",
		Metadata: map[string]interface{}{"staff_id": 1}}
	require.NoError(t, db.Create(&entry).Error)

	require.NoError(t, db.Delete(&user).Error)

	var loaded AuditLog
	require.NoError(t, db.First(&loaded, entry.ID).Error)
	assert.Nil(t, loaded.UserID)
	assert.Equal(t, "mgr", loaded.Username)
	assert.Equal(t, json.Number("1"), loaded.Metadata["staff_id"], "JSONMap decodes numbers as json.Number")
}
