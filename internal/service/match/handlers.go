package match

import (
	"context"
	"fmt"
	"time"

	"github.com/oggyb/matchmaker/internal/db"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
	"github.com/oggyb/matchmaker/internal/server"
)

// ServiceName is the gRPC service implemented by handlers.
const ServiceName = "matchmaker.v1.MatchService"

type matchRequest struct {
	MatchID string `json:"matchId"`
}

type matchView struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	HasMessages   bool       `json:"hasMessages"`
	LastMessage   string     `json:"lastMessage,omitempty"`
	LastMessageAt *time.Time `json:"lastMessageAt,omitempty"`
	Forced        bool       `json:"forced"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type matchesResponse struct {
	Matches []matchView `json:"matches"`
}

type pendingView struct {
	MatchID   string    `json:"matchId"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	City      string    `json:"city,omitempty"`
	Photo     string    `json:"photo,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type pendingResponse struct {
	Matches []pendingView `json:"matches"`
}

type hasMessagesResponse struct {
	HasMessages bool `json:"hasMessages"`
}

type handlers struct {
	svc *Service
}

func (h *handlers) listMatches(ctx context.Context, _ *server.Empty) (*matchesResponse, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	matches, err := h.svc.GetMatches(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return toMatchesResponse(actor.UserID, matches), nil
}

func (h *handlers) listActiveMatches(ctx context.Context, _ *server.Empty) (*matchesResponse, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	matches, err := h.svc.GetActiveMatches(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return toMatchesResponse(actor.UserID, matches), nil
}

func (h *handlers) listPendingMatches(ctx context.Context, _ *server.Empty) (*pendingResponse, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := h.svc.GetPendingMatches(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	resp := &pendingResponse{Matches: make([]pendingView, 0, len(pending))}
	for _, p := range pending {
		resp.Matches = append(resp.Matches, pendingView(p))
	}
	return resp, nil
}

func (h *handlers) unmatch(ctx context.Context, req *matchRequest) (*server.Empty, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	return &server.Empty{}, h.svc.Unmatch(ctx, actor.UserID, req.MatchID)
}

func (h *handlers) hasMessages(ctx context.Context, req *matchRequest) (*hasMessagesResponse, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	m, err := h.svc.GetMatch(ctx, req.MatchID)
	if err != nil {
		return nil, err
	}
	if !m.Has(actor.UserID) && !actor.IsAdmin {
		return nil, fmt.Errorf("%w: not part of match %s", svcErr.ErrPermissionDenied, req.MatchID)
	}
	has, err := h.svc.HasMessages(ctx, req.MatchID)
	if err != nil {
		return nil, err
	}
	return &hasMessagesResponse{HasMessages: has}, nil
}

func toMatchesResponse(userID string, matches []db.Match) *matchesResponse {
	resp := &matchesResponse{Matches: make([]matchView, 0, len(matches))}
	for _, m := range matches {
		resp.Matches = append(resp.Matches, matchView{
			ID:            m.ID,
			UserID:        m.Other(userID),
			HasMessages:   m.HasMessages,
			LastMessage:   m.LastMessage,
			LastMessageAt: m.LastMessageAt,
			Forced:        m.ForcedBy != "",
			CreatedAt:     m.CreatedAt,
		})
	}
	return resp
}
