package models

import (
	"time"
)

// Position is the job a staff member does on the floor
type Position string

const (
	PositionBarista Position = "barista"
	PositionCashier Position = "cashier"
	PositionManager Position = "manager"
	PositionChef    Position = "chef"
	PositionCleaner Position = "cleaner"
)

// Positions lists every recognized position
var Positions = []Position{PositionBarista, PositionCashier, PositionManager, PositionChef, PositionCleaner}

// IsValid reports whether p is a recognized position
func (p Position) IsValid() bool {
	for _, known := range Positions {
		if known == p {
			return true
		}
	}
	return false
}

// Staff is an employee who can take orders. It is not a login account.
type Staff struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StaffCode string    `gorm:"size:10;uniqueIndex;not null" json:"staff_code"` // short human readable code
	Name      string    `gorm:"size:100;not null" json:"name"`
	Position  Position  `gorm:"size:50;not null" json:"position"`
	Contact   string    `gorm:"size:50" json:"contact"`
	Active    bool      `gorm:"not null" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Staff model
func (Staff) TableName() string {
	return "staff"
}
