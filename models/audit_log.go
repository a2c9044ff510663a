package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audit action tags
const (
	ActionCreateOrder       = "CREATE_ORDER"
	ActionUpdateOrderStatus = "UPDATE_ORDER_STATUS"
	ActionDeleteOrder       = "DELETE_ORDER"
	ActionAddMenuItem       = "ADD_MENU_ITEM"
	ActionUpdateMenuItem    = "UPDATE_MENU_ITEM"
	ActionDeleteMenuItem    = "DELETE_MENU_ITEM"
	ActionUploadMenuImage   = "UPLOAD_MENU_IMAGE"
	ActionAddStaff          = "ADD_STAFF"
	ActionUpdateStaff       = "UPDATE_STAFF"
	ActionDeleteStaff       = "DELETE_STAFF"
	ActionCreateUser        = "CREATE_USER"
	ActionUpdateUserRole    = "UPDATE_USER_ROLE"
	ActionDeleteUser        = "DELETE_USER"
)

// AuditLog is an append-only record of a mutating action
type AuditLog struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	UserID      *uint             `gorm:"index" json:"user_id"` // nulled when the user is deleted
	User        *User             `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	Username    string            `gorm:"size:64;not null" json:"username"`
	Action      string            `gorm:"size:100;not null;index" json:"action"`
	Description string            `gorm:"type:text" json:"description"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}
