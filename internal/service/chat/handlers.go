package chat

import (
	"context"
	"time"

	"github.com/oggyb/matchmaker/internal/db"
	"github.com/oggyb/matchmaker/internal/server"
)

// ServiceName is the gRPC service implemented by handlers.
const ServiceName = "matchmaker.v1.ChatService"

type sendRequest struct {
	MatchID string `json:"matchId"`
	Content string `json:"content"`
}

type matchRequest struct {
	MatchID string `json:"matchId"`
}

type deleteRequest struct {
	MessageID string `json:"messageId"`
}

type messageView struct {
	ID        string    `json:"id"`
	MatchID   string    `json:"matchId"`
	SenderID  string    `json:"senderId"`
	Content   string    `json:"content"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

type messagesResponse struct {
	Messages []messageView `json:"messages"`
}

type markReadResponse struct {
	Updated int64 `json:"updated"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

type chatView struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	LastMessage   string     `json:"lastMessage,omitempty"`
	LastSenderID  string     `json:"lastSenderId,omitempty"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty"`
	UnreadCount   int        `json:"unreadCount"`
}

type chatsResponse struct {
	Chats []chatView `json:"chats"`
}

type handlers struct {
	svc *Service
}

func (h *handlers) sendMessage(ctx context.Context, req *sendRequest) (*messageView, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	msg, err := h.svc.SendMessage(ctx, req.MatchID, actor.UserID, req.Content)
	if err != nil {
		return nil, err
	}
	v := toMessageView(msg)
	return &v, nil
}

func (h *handlers) getMessages(ctx context.Context, req *matchRequest) (*messagesResponse, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	msgs, err := h.svc.GetMessages(ctx, req.MatchID, actor.UserID)
	if err != nil {
		return nil, err
	}
	resp := &messagesResponse{Messages: make([]messageView, 0, len(msgs))}
	for i := range msgs {
		resp.Messages = append(resp.Messages, toMessageView(&msgs[i]))
	}
	return resp, nil
}

func (h *handlers) markAsRead(ctx context.Context, req *matchRequest) (*markReadResponse, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	n, err := h.svc.MarkMessagesAsRead(ctx, req.MatchID, actor.UserID)
	if err != nil {
		return nil, err
	}
	return &markReadResponse{Updated: n}, nil
}

func (h *handlers) unreadCount(ctx context.Context, _ *server.Empty) (*countResponse, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	n, err := h.svc.UnreadCount(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return &countResponse{Count: n}, nil
}

func (h *handlers) listChats(ctx context.Context, _ *server.Empty) (*chatsResponse, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	chats, err := h.svc.GetUserChats(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	resp := &chatsResponse{Chats: make([]chatView, 0, len(chats))}
	for _, c := range chats {
		other := c.UserA
		if other == actor.UserID {
			other = c.UserB
		}
		v := chatView{
			ID:            c.ID,
			UserID:        other,
			LastMessage:   c.LastMessage,
			LastSenderID:  c.LastSenderID,
			LastMessageAt: c.LastMessageAt,
		}
		// the counter belongs to whoever did not send the last message
		if c.LastSenderID != actor.UserID {
			v.UnreadCount = c.UnreadCount
		}
		resp.Chats = append(resp.Chats, v)
	}
	return resp, nil
}

func (h *handlers) deleteMessage(ctx context.Context, req *deleteRequest) (*server.Empty, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	return &server.Empty{}, h.svc.DeleteMessage(ctx, req.MessageID, actor.UserID)
}

// subscribe streams new messages of a match until the client goes away.
func (h *handlers) subscribe(ctx context.Context, req *matchRequest, send server.Sender[messageView]) error {
	actor, err := server.Actor(ctx)
	if err != nil {
		return err
	}
	sub, err := h.svc.Subscribe(ctx, req.MatchID, actor.UserID)
	if err != nil {
		return err
	}
	defer sub.Close()

	for ev := range sub.Events() {
		v := messageView{
			ID:        ev.ID,
			MatchID:   ev.MatchID,
			SenderID:  ev.SenderID,
			Content:   ev.Content,
			CreatedAt: ev.CreatedAt,
		}
		if err := send(&v); err != nil {
			return err
		}
	}
	return nil
}

func toMessageView(m *db.Message) messageView {
	return messageView{
		ID:        m.ID,
		MatchID:   m.MatchID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		Read:      m.Read,
		CreatedAt: m.CreatedAt,
	}
}
