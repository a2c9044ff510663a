package services

import (
	"context"
	"fmt"

	"github.com/kendall-kelly/cafe-manager-api/config"
	"github.com/kendall-kelly/cafe-manager-api/models"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// EnsureDefaultUsers creates admin, manager and staff accounts when the users table is empty
func EnsureDefaultUsers(ctx context.Context, db *gorm.DB, hasher PasswordHasher, passwords config.SeedPasswords) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	defaults := []struct {
		username, email, password, role string
	}{
		{"admin", "admin@cafe.local", passwords.Admin, models.RoleAdmin},
		{"manager", "manager@cafe.local", passwords.Manager, models.RoleManager},
		{"staff", "staff@cafe.local", passwords.Staff, models.RoleStaff},
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, d := range defaults {
			hash, err := hasher.Hash(d.password)
			if err != nil {
				return fmt.Errorf("failed to hash password for %s: %w", d.username, err)
			}
			user := models.User{Username: d.username, Email: d.email, PasswordHash: hash, Role: d.role}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("failed to create %s user: %w", d.username, err)
			}
			log.Info().Str("username", d.username).Str("role", d.role).Msg("Created default user")
		}
		return nil
	})
}
