package feed

import (
	"context"

	"github.com/oggyb/matchmaker/internal/filter"
	"github.com/oggyb/matchmaker/internal/geo"
	"github.com/oggyb/matchmaker/internal/server"
)

// ServiceName is the gRPC service implemented by handlers.
const ServiceName = "matchmaker.v1.FeedService"

type candidatesRequest struct {
	// Criteria defaults to filter.Default when absent.
	Criteria     *filter.Criteria `json:"criteria"`
	ExcludeVoted bool             `json:"excludeVoted"`
	Latitude     *float64         `json:"latitude"`
	Longitude    *float64         `json:"longitude"`
}

type profileView struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Age               int      `json:"age"`
	Gender            string   `json:"gender,omitempty"`
	City              string   `json:"city,omitempty"`
	Country           string   `json:"country,omitempty"`
	Description       string   `json:"description,omitempty"`
	SexualOrientation string   `json:"sexualOrientation,omitempty"`
	RelationshipType  string   `json:"relationshipType,omitempty"`
	Photos            []string `json:"photos"`
	IsVerified        bool     `json:"isVerified"`
	IsSuperVerified   bool     `json:"isSuperVerified"`
	// DistanceKm is absent when unknown.
	DistanceKm *float64 `json:"distanceKm,omitempty"`
}

type candidatesResponse struct {
	Profiles []profileView `json:"profiles"`
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type profileRequest struct {
	UserID string `json:"userId"`
}

type handlers struct {
	svc *Service
}

func (h *handlers) getCandidates(ctx context.Context, req *candidatesRequest) (*candidatesResponse, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	criteria := filter.Default()
	if req.Criteria != nil {
		criteria = *req.Criteria
	}
	opts := Options{ExcludeVoted: req.ExcludeVoted, Origin: geo.FromPtrs(req.Latitude, req.Longitude)}

	profiles, err := h.svc.GetCandidates(ctx, actor.UserID, criteria, opts)
	if err != nil {
		return nil, err
	}
	resp := &candidatesResponse{Profiles: make([]profileView, 0, len(profiles))}
	for i := range profiles {
		resp.Profiles = append(resp.Profiles, toView(&profiles[i]))
	}
	return resp, nil
}

func (h *handlers) updateLocation(ctx context.Context, req *locationRequest) (*server.Empty, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	return &server.Empty{}, h.svc.UpdateLocation(ctx, actor.UserID, geo.FromPtrs(req.Latitude, req.Longitude))
}

func (h *handlers) getProfile(ctx context.Context, req *profileRequest) (*profileView, error) {
	if _, err := server.Actor(ctx); err != nil {
		return nil, err
	}
	p, err := h.svc.GetProfile(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	v := toView(p)
	return &v, nil
}

func toView(p *Profile) profileView {
	v := profileView{
		ID:                p.ID,
		Name:              p.Name,
		Age:               p.Age,
		Gender:            p.Gender,
		City:              p.City,
		Country:           p.Country,
		Description:       p.Description,
		SexualOrientation: p.SexualOrientation,
		RelationshipType:  p.RelationshipType,
		Photos:            p.Photos,
		IsVerified:        p.IsVerified,
		IsSuperVerified:   p.IsSuperVerified,
	}
	if v.Photos == nil {
		v.Photos = []string{}
	}
	if p.DistanceKnown {
		d := p.DistanceKm
		v.DistanceKm = &d
	}
	return v
}
