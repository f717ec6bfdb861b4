package inbox

import (
	"context"
	"time"

	"github.com/oggyb/matchmaker/internal/server"
)

// ServiceName is the gRPC service implemented by handlers.
const ServiceName = "matchmaker.v1.InboxService"

type listRequest struct {
	Limit int `json:"limit"`
}

type markReadRequest struct {
	// IDs empty marks everything read.
	IDs []string `json:"ids"`
}

type notificationView struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Data      map[string]any `json:"data,omitempty"`
	Read      bool           `json:"read"`
	CreatedAt time.Time      `json:"createdAt"`
}

type listResponse struct {
	Notifications []notificationView `json:"notifications"`
}

type markReadResponse struct {
	Updated int64 `json:"updated"`
}

type handlers struct {
	svc *Service
}

func (h *handlers) list(ctx context.Context, req *listRequest) (*listResponse, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	items, err := h.svc.List(ctx, actor.UserID, req.Limit)
	if err != nil {
		return nil, err
	}
	resp := &listResponse{Notifications: make([]notificationView, 0, len(items))}
	for _, n := range items {
		resp.Notifications = append(resp.Notifications, notificationView{
			ID:        n.ID,
			Kind:      n.Kind,
			Title:     n.Title,
			Body:      n.Body,
			Data:      n.Data,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}
	return resp, nil
}

func (h *handlers) markRead(ctx context.Context, req *markReadRequest) (*markReadResponse, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	n, err := h.svc.MarkRead(ctx, actor.UserID, req.IDs...)
	if err != nil {
		return nil, err
	}
	return &markReadResponse{Updated: n}, nil
}
