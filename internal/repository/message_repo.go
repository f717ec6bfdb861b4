package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oggyb/matchmaker/internal/db"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
)

// MessageRepository provides data access for chat messages.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

// Create inserts m, assigning an id when empty.
func (r *MessageRepository) Create(ctx context.Context, m *db.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return svcErr.Store(r.db.WithContext(ctx).Create(m).Error)
}

func (r *MessageRepository) Get(ctx context.Context, id string) (*db.Message, error) {
	var m db.Message
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, svcErr.Store(err)
	}
	return &m, nil
}

// AnyForMatch checks for at least one message of the match. Soft-deleted
// messages count: they were exchanged.
func (r *MessageRepository) AnyForMatch(ctx context.Context, matchID string) (bool, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("match_id = ?", matchID).
		Limit(1).
		Pluck("id", &ids).Error
	return len(ids) > 0, svcErr.Store(err)
}

// MatchesWithMessages returns the subset of matchIDs that have messages.
func (r *MessageRepository) MatchesWithMessages(ctx context.Context, matchIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(matchIDs))
	if len(matchIDs) == 0 {
		return out, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("match_id IN ?", matchIDs).
		Distinct("match_id").
		Pluck("match_id", &ids).Error
	if err != nil {
		return nil, svcErr.Store(err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// ForMatch lists visible messages oldest first.
func (r *MessageRepository) ForMatch(ctx context.Context, matchID string) ([]db.Message, error) {
	var msgs []db.Message
	err := r.db.WithContext(ctx).
		Where("match_id = ? AND deleted = ?", matchID, false).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	return msgs, svcErr.Store(err)
}

// MarkRead marks the counterpart's unread messages as read by reader.
func (r *MessageRepository) MarkRead(ctx context.Context, matchID, reader string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("match_id = ? AND sender_id <> ? AND is_read = ?", matchID, reader, false).
		Update("is_read", true)
	return res.RowsAffected, svcErr.Store(res.Error)
}

// CountUnread counts visible messages addressed to reader across matchIDs.
func (r *MessageRepository) CountUnread(ctx context.Context, reader string, matchIDs []string) (int64, error) {
	if len(matchIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("match_id IN ? AND sender_id <> ? AND is_read = ? AND deleted = ?", matchIDs, reader, false, false).
		Count(&count).Error
	return count, svcErr.Store(err)
}

// SoftDelete hides a message. Only the sender's own messages are affected.
func (r *MessageRepository) SoftDelete(ctx context.Context, id, sender string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("id = ? AND sender_id = ?", id, sender).
		Update("deleted", true)
	return res.RowsAffected, svcErr.Store(res.Error)
}

// DeleteBySender hard-deletes everything the user wrote.
func (r *MessageRepository) DeleteBySender(ctx context.Context, sender string) (int64, error) {
	res := r.db.WithContext(ctx).Where("sender_id = ?", sender).Delete(&db.Message{})
	return res.RowsAffected, svcErr.Store(res.Error)
}

func (r *MessageRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.Message{}).Count(&count).Error
	return count, svcErr.Store(err)
}
