package repositories

import (
	"context"

	"gymdesk/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// AuditLogRepository handles audit_logs data access
type AuditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// CreateBatch inserts audit entries
func (r *AuditLogRepository) CreateBatch(ctx context.Context, logs []*models.AuditLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&logs).Error
}

// ListByEntity lists audit entries of one entity, newest first
func (r *AuditLogRepository) ListByEntity(ctx context.Context, entityType string, entityID uint) ([]*models.AuditLog, error) {
	var logs []*models.AuditLog
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("id DESC").
		Find(&logs).Error
	return logs, err
}
