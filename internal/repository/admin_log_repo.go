package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oggyb/matchmaker/internal/db"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
)

// AdminLogRepository stores the moderation audit trail.
type AdminLogRepository struct {
	db *gorm.DB
}

func NewAdminLogRepository(database *gorm.DB) *AdminLogRepository {
	return &AdminLogRepository{db: database}
}

func (r *AdminLogRepository) Create(ctx context.Context, entry *db.AdminLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	return svcErr.Store(r.db.WithContext(ctx).Create(entry).Error)
}

// Recent returns the newest entries first.
func (r *AdminLogRepository) Recent(ctx context.Context, limit int) ([]db.AdminLog, error) {
	var logs []db.AdminLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, svcErr.Store(err)
}
