package profile

import (
	"context"
	"time"

	"github.com/oggyb/matchmaker/internal/server"
)

// ServiceName is the gRPC service implemented by handlers.
const ServiceName = "matchmaker.v1.ProfileService"

// RegisterMethod may be called before the caller has a user row.
const RegisterMethod = "/" + ServiceName + "/Register"

type registerResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Created   bool      `json:"created"`
	CreatedAt time.Time `json:"createdAt"`
}

type pushTokenRequest struct {
	Token string `json:"token"`
}

type handlers struct {
	svc *Service
}

func (h *handlers) register(ctx context.Context, req *Details) (*registerResponse, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	u, created, err := h.svc.Register(ctx, actor.UserID, *req)
	if err != nil {
		return nil, err
	}
	return &registerResponse{ID: u.ID, Name: u.Name, Created: created, CreatedAt: u.CreatedAt}, nil
}

func (h *handlers) setPushToken(ctx context.Context, req *pushTokenRequest) (*server.Empty, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.svc.SetPushToken(ctx, actor.UserID, req.Token); err != nil {
		return nil, err
	}
	return &server.Empty{}, nil
}
