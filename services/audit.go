package services

import (
	"context"

	"github.com/kendall-kelly/cafe-manager-api/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// recordAudit appends an audit entry using the caller's transaction
func recordAudit(tx *gorm.DB, actor Actor, action, description string, metadata map[string]interface{}) error {
	entry := models.AuditLog{
		Username:    actor.Username,
		Action:      action,
		Description: description,
	}
	if actor.UserID != 0 {
		id := actor.UserID
		entry.UserID = &id
	}
	if len(metadata) > 0 {
		entry.Metadata = datatypes.JSONMap(metadata)
	}
	if err := tx.Create(&entry).Error; err != nil {
		return persistenceError("write audit log", err)
	}
	return nil
}

// AuditFilter narrows an audit log listing
type AuditFilter struct {
	Action string
	UserID uint
	Page   int
	Limit  int
}

// AuditService reads the audit trail
type AuditService struct {
	db *gorm.DB
}

// NewAuditService creates an AuditService
func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// List returns audit entries newest first. Admin only.
func (s *AuditService) List(ctx context.Context, actor Actor, filter AuditFilter) ([]models.AuditLog, int64, error) {
	if err := actor.Require(models.RoleAdmin); err != nil {
		return nil, 0, err
	}
	page, limit := NormalizePage(filter.Page, filter.Limit)

	query := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, persistenceError("count audit logs", err)
	}

	entries := make([]models.AuditLog, 0)
	if err := query.Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, 0, persistenceError("list audit logs", err)
	}
	return entries, total, nil
}
