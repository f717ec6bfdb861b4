package interaction

import (
	"context"

	"github.com/oggyb/matchmaker/internal/server"
)

// ServiceName is the gRPC service implemented by handlers.
const ServiceName = "matchmaker.v1.InteractionService"

type targetRequest struct {
	TargetUserID string `json:"targetUserId"`
}

type likeResponse struct {
	IsMatch   bool   `json:"isMatch"`
	MatchID   string `json:"matchId,omitempty"`
	Duplicate bool   `json:"duplicate"`
}

type dislikeResponse struct {
	Inserted bool `json:"inserted"`
}

type listLikesRequest struct {
	PaginationToken string `json:"paginationToken"`
	Limit           int    `json:"limit"`
}

type likerView struct {
	UserID        string `json:"userId"`
	UnixTimestamp int64  `json:"unixTimestamp"`
}

type listLikesResponse struct {
	Likers              []likerView `json:"likers"`
	NextPaginationToken string      `json:"nextPaginationToken,omitempty"`
}

type likesGivenResponse struct {
	UserIDs []string `json:"userIds"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

// handlers adapts Service to gRPC. The acting user always comes from the
// session, never from the payload.
type handlers struct {
	svc *Service
}

func (h *handlers) giveLike(ctx context.Context, req *targetRequest) (*likeResponse, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	res, err := h.svc.GiveLike(ctx, actor.UserID, req.TargetUserID)
	if err != nil {
		return nil, err
	}
	return &likeResponse{IsMatch: res.IsMatch, MatchID: res.MatchID, Duplicate: res.Duplicate}, nil
}

func (h *handlers) giveDislike(ctx context.Context, req *targetRequest) (*dislikeResponse, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	inserted, err := h.svc.GiveDislike(ctx, actor.UserID, req.TargetUserID)
	if err != nil {
		return nil, err
	}
	return &dislikeResponse{Inserted: inserted}, nil
}

func (h *handlers) removeLike(ctx context.Context, req *targetRequest) (*server.Empty, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	return &server.Empty{}, h.svc.RemoveLike(ctx, actor.UserID, req.TargetUserID)
}

func (h *handlers) removeDislike(ctx context.Context, req *targetRequest) (*server.Empty, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	return &server.Empty{}, h.svc.RemoveDislike(ctx, actor.UserID, req.TargetUserID)
}

func (h *handlers) listLikesReceived(ctx context.Context, req *listLikesRequest) (*listLikesResponse, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	likers, next, err := h.svc.LikesReceived(ctx, actor.UserID, req.PaginationToken, req.Limit)
	if err != nil {
		return nil, err
	}
	resp := &listLikesResponse{Likers: make([]likerView, 0, len(likers)), NextPaginationToken: next}
	for _, l := range likers {
		resp.Likers = append(resp.Likers, likerView{UserID: l.UserID, UnixTimestamp: l.CreatedAt.UnixMilli()})
	}
	return resp, nil
}

func (h *handlers) listLikesGiven(ctx context.Context, _ *server.Empty) (*likesGivenResponse, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := h.svc.LikesGiven(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return &likesGivenResponse{UserIDs: ids}, nil
}

func (h *handlers) countLikesReceived(ctx context.Context, _ *server.Empty) (*countResponse, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	n, err := h.svc.CountLikesReceived(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return &countResponse{Count: n}, nil
}
