package chat

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oggyb/matchmaker/internal/app"
	"github.com/oggyb/matchmaker/internal/db"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
	"github.com/oggyb/matchmaker/internal/metrics"
	"github.com/oggyb/matchmaker/internal/notify"
	"github.com/oggyb/matchmaker/internal/repository"
	"github.com/oggyb/matchmaker/internal/service/match"
)

// MaxMessageLength is counted in runes.
const MaxMessageLength = 2000

// Service sends and reads messages between matched users.
type Service struct {
	appCtx   *app.AppContext
	matches  *match.Service
	matchDB  *repository.MatchRepository
	messages *repository.MessageRepository
	chats    *repository.ChatRepository
}

// NewService creates a chat Service with dependencies from AppContext.
func NewService(appCtx *app.AppContext, matches *match.Service) *Service {
	return &Service{
		appCtx:   appCtx,
		matches:  matches,
		matchDB:  repository.NewMatchRepository(appCtx.DB),
		messages: repository.NewMessageRepository(appCtx.DB),
		chats:    repository.NewChatRepository(appCtx.DB),
	}
}

// Event is what subscribers of a match channel receive.
type Event struct {
	ID        string    `json:"id"`
	MatchID   string    `json:"matchId"`
	SenderID  string    `json:"senderId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// SendMessage stores a message from sender in the match conversation.
//
// Behavior:
//   - sender must be one of the two participants.
//   - The message row is the source of truth. The chat projection, the
//     match's last message and has_messages are updated after it; a failure
//     there is logged and fixed by later reads or the next message.
//   - Subscribers of the match channel get an Event; the counterpart gets a
//     NewMessage notification.
func (s *Service) SendMessage(ctx context.Context, matchID, sender, content string) (*db.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, svcErr.Invalid("message is empty")
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return nil, svcErr.Invalid("message longer than %d characters", MaxMessageLength)
	}

	m, err := s.participant(ctx, matchID, sender)
	if err != nil {
		return nil, err
	}

	msg := &db.Message{MatchID: matchID, SenderID: sender, Content: content}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	log := s.appCtx.Logger.With("match_id", matchID, "message_id", msg.ID)

	if err := s.matches.MarkMatchAsActive(ctx, matchID); err != nil {
		log.Warn("mark match active failed", "err", err)
	}
	chat := db.Chat{ID: m.ID, UserA: m.UserA, UserB: m.UserB}
	if err := s.chats.RecordMessage(ctx, chat, sender, content, msg.CreatedAt); err != nil {
		log.Warn("chat projection update failed", "err", err)
	}
	if err := s.matchDB.RecordLastMessage(ctx, matchID, content, msg.CreatedAt); err != nil {
		log.Warn("match last message update failed", "err", err)
	}

	if err := s.appCtx.RedisCache.Publish(ctx, s.appCtx.RedisCache.ChannelForChat(matchID), toEvent(msg)); err != nil {
		log.Warn("publish message failed", "err", err)
	}
	notify.Send(ctx, s.appCtx.Notifier, s.appCtx.Logger, notify.NewMessage(m.Other(sender), sender, matchID, content))

	metrics.MessagesSent.Inc()
	log.Debug("message sent", "sender", sender)
	return msg, nil
}

// GetMessages lists the visible messages of the match, oldest first.
func (s *Service) GetMessages(ctx context.Context, matchID, reader string) ([]db.Message, error) {
	if _, err := s.participant(ctx, matchID, reader); err != nil {
		return nil, err
	}
	return s.messages.ForMatch(ctx, matchID)
}

// MarkMessagesAsRead marks every message the counterpart sent as read and
// clears the chat's unread counter for reader.
func (s *Service) MarkMessagesAsRead(ctx context.Context, matchID, reader string) (int64, error) {
	if _, err := s.participant(ctx, matchID, reader); err != nil {
		return 0, err
	}
	n, err := s.messages.MarkRead(ctx, matchID, reader)
	if err != nil {
		return 0, err
	}
	if err := s.chats.ResetUnread(ctx, matchID, reader); err != nil {
		s.appCtx.Logger.Warn("reset unread failed", "match_id", matchID, "err", err)
	}
	return n, nil
}

// UnreadCount is the number of unread messages addressed to userID over all
// of their matches.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	matches, err := s.matchDB.ForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	ids := make([]string, 0, len(matches))
	for i := range matches {
		ids = append(ids, matches[i].ID)
	}
	return s.messages.CountUnread(ctx, userID, ids)
}

// GetUserChats lists the user's conversations, most recent first.
func (s *Service) GetUserChats(ctx context.Context, userID string) ([]db.Chat, error) {
	return s.chats.ForUser(ctx, userID)
}

// DeleteMessage hides a message. Only its sender may do that.
func (s *Service) DeleteMessage(ctx context.Context, id, sender string) error {
	msg, err := s.messages.Get(ctx, id)
	if err != nil {
		return err
	}
	if msg.SenderID != sender {
		return fmt.Errorf("%w: message %s was not sent by %s", svcErr.ErrPermissionDenied, id, sender)
	}
	_, err = s.messages.SoftDelete(ctx, id, sender)
	return err
}

// participant loads the match and checks that userID belongs to it.
func (s *Service) participant(ctx context.Context, matchID, userID string) (*db.Match, error) {
	if matchID == "" || userID == "" {
		return nil, svcErr.Invalid("match and user are required")
	}
	m, err := s.matches.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !m.Has(userID) {
		return nil, fmt.Errorf("%w: %s is not part of match %s", svcErr.ErrPermissionDenied, userID, matchID)
	}
	return m, nil
}

func toEvent(m *db.Message) Event {
	return Event{
		ID:        m.ID,
		MatchID:   m.MatchID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}
