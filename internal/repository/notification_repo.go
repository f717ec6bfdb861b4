package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oggyb/matchmaker/internal/db"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
)

// NotificationRepository stores the in-app notification inbox.
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(database *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: database}
}

func (r *NotificationRepository) Create(ctx context.Context, n *db.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return svcErr.Store(r.db.WithContext(ctx).Create(n).Error)
}

// ForUser lists the user's notifications, newest first.
func (r *NotificationRepository) ForUser(ctx context.Context, userID string, limit int) ([]db.Notification, error) {
	var out []db.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, svcErr.Store(err)
}

// MarkRead marks the given notifications of the user as read. No ids marks all.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID string, ids ...string) (int64, error) {
	q := r.db.WithContext(ctx).Model(&db.Notification{}).Where("user_id = ? AND is_read = ?", userID, false)
	if len(ids) > 0 {
		q = q.Where("id IN ?", ids)
	}
	res := q.Update("is_read", true)
	return res.RowsAffected, svcErr.Store(res.Error)
}

// DeleteForUser removes the user's whole inbox.
func (r *NotificationRepository) DeleteForUser(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&db.Notification{})
	return res.RowsAffected, svcErr.Store(res.Error)
}
