package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/matchmaker/internal/db"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
)

// ChatRepository maintains the inbox projection of matches.
type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(database *gorm.DB) *ChatRepository {
	return &ChatRepository{db: database}
}

func (r *ChatRepository) Get(ctx context.Context, id string) (*db.Chat, error) {
	var c db.Chat
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, svcErr.Store(err)
	}
	return &c, nil
}

// RecordMessage upserts the chat with the latest message.
//
// Behavior:
//   - Missing chat (match created before chats existed) is created.
//   - unread_count grows while the same user keeps sending and restarts at 1
//     when the other side replies.
//
// unread_count is assigned before last_sender_id: MySQL evaluates
// ON DUPLICATE KEY UPDATE assignments left to right.
func (r *ChatRepository) RecordMessage(ctx context.Context, chat db.Chat, sender, content string, at time.Time) error {
	chat.LastMessage = content
	chat.LastSenderID = sender
	chat.LastMessageAt = &at
	chat.UnreadCount = 1

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Set{
				{Column: clause.Column{Name: "unread_count"}, Value: gorm.Expr(
					"CASE WHEN chats.last_sender_id = ? THEN chats.unread_count + 1 ELSE 1 END", sender)},
				{Column: clause.Column{Name: "last_sender_id"}, Value: sender},
				{Column: clause.Column{Name: "last_message"}, Value: content},
				{Column: clause.Column{Name: "last_message_at"}, Value: at},
				{Column: clause.Column{Name: "updated_at"}, Value: at},
			},
		}).
		Create(&chat).Error
	return svcErr.Store(err)
}

// ForUser lists the user's chats, most recently active first.
func (r *ChatRepository) ForUser(ctx context.Context, userID string) ([]db.Chat, error) {
	var chats []db.Chat
	err := r.db.WithContext(ctx).
		Where("user_a = ? OR user_b = ?", userID, userID).
		Order("updated_at DESC").
		Find(&chats).Error
	return chats, svcErr.Store(err)
}

// ResetUnread clears the counter when reader opens the chat. The counter
// belongs to whoever did not send the last message.
func (r *ChatRepository) ResetUnread(ctx context.Context, id, reader string) error {
	err := r.db.WithContext(ctx).
		Model(&db.Chat{}).
		Where("id = ? AND last_sender_id <> ?", id, reader).
		Update("unread_count", 0).Error
	return svcErr.Store(err)
}
