package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/oggyb/matchmaker/internal/app"
	"github.com/oggyb/matchmaker/internal/db"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
	"github.com/oggyb/matchmaker/internal/filter"
	"github.com/oggyb/matchmaker/internal/geo"
	"github.com/oggyb/matchmaker/internal/metrics"
	"github.com/oggyb/matchmaker/internal/repository"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Service assembles the list of profiles a user can swipe on.
type Service struct {
	appCtx   *app.AppContext
	users    *repository.UserRepository
	matches  *repository.MatchRepository
	likes    *repository.EdgeRepository
	dislikes *repository.EdgeRepository
}

// NewService creates a feed Service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		users:    repository.NewUserRepository(appCtx.DB),
		matches:  repository.NewMatchRepository(appCtx.DB),
		likes:    repository.NewLikeRepository(appCtx.DB),
		dislikes: repository.NewDislikeRepository(appCtx.DB),
	}
}

// Options tune a single GetCandidates call.
type Options struct {
	// ExcludeVoted drops users the viewer already liked or disliked.
	ExcludeVoted bool
	// Origin overrides the viewer's stored coordinate, e.g. a fresh device fix.
	Origin *geo.Coordinate
}

// Profile is the public view of a user as shown in the feed.
type Profile struct {
	ID                string
	Name              string
	Age               int
	Gender            string
	City              string
	Country           string
	Description       string
	SexualOrientation string
	RelationshipType  string
	Photos            []string
	IsVerified        bool
	IsSuperVerified   bool
	DistanceKm        float64
	DistanceKnown     bool
	CreatedAt         time.Time
}

// GetCandidates returns the profiles visible to userID under criteria.
//
// Behavior:
//   - Scans the newest Feed.PageSize users.
//   - Drops the viewer, banned users and users already matched with the viewer.
//   - With opts.ExcludeVoted, also drops users the viewer liked or disliked.
//   - Applies the filter pipeline from the viewer's coordinate; without one
//     the distance limit is ignored.
//   - Nearest first; users without a coordinate last.
//
// Example:
//
//	c := filter.Default()
//	c.Genders = []string{"female"}
//	svc.GetCandidates(ctx, "carlos", c, feed.Options{ExcludeVoted: true})
func (s *Service) GetCandidates(ctx context.Context, userID string, criteria filter.Criteria, opts Options) ([]Profile, error) {
	s.appCtx.Logger.Debug("GetCandidates called", "user", userID, "exclude_voted", opts.ExcludeVoted)

	if err := criteria.Validate(); err != nil {
		return nil, err
	}
	viewer, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("viewer %s: %w", userID, err)
	}

	exclude, err := s.excluded(ctx, userID, opts.ExcludeVoted)
	if err != nil {
		return nil, err
	}

	users, err := s.users.Recent(ctx, s.appCtx.Config.Feed.PageSize)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*db.User, len(users))
	candidates := make([]filter.Candidate, 0, len(users))
	for i := range users {
		u := &users[i]
		if _, dup := byID[u.ID]; dup || exclude[u.ID] || u.IsBanned {
			continue
		}
		byID[u.ID] = u
		candidates = append(candidates, toCandidate(u))
	}

	criteria.Origin = geo.FromPtrs(viewer.Latitude, viewer.Longitude)
	if opts.Origin.Valid() {
		criteria.Origin = opts.Origin
	}
	if !s.appCtx.Config.Feed.IncludeUnlocated {
		criteria.ExcludeUnlocated = true
	}

	visible := filter.Apply(candidates, criteria)
	filter.SortByDistance(visible)
	metrics.FeedCandidates.Observe(float64(len(visible)))

	out := make([]Profile, 0, len(visible))
	for _, c := range visible {
		p := toProfile(byID[c.ID])
		p.DistanceKm, p.DistanceKnown = c.DistanceKm, c.DistanceKnown
		out = append(out, p)
	}

	s.appCtx.Logger.Debug("GetCandidates result", "user", userID, "scanned", len(users), "visible", len(out))
	return out, nil
}

// excluded collects ids that never appear in userID's feed.
func (s *Service) excluded(ctx context.Context, userID string, voted bool) (map[string]bool, error) {
	out := map[string]bool{userID: true}

	matches, err := s.matches.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range matches {
		out[matches[i].Other(userID)] = true
	}

	if !voted {
		return out, nil
	}
	for _, repo := range []*repository.EdgeRepository{s.likes, s.dislikes} {
		ids, err := repo.TargetsOf(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			out[id] = true
		}
	}
	return out, nil
}

// UpdateLocation stores the user's coordinate. A nil coordinate clears it,
// which is what a denied location permission looks like.
func (s *Service) UpdateLocation(ctx context.Context, userID string, coord *geo.Coordinate) error {
	if coord == nil {
		return s.users.SetLocation(ctx, userID, nil, nil)
	}
	if err := validate.Struct(coord); err != nil || !coord.Valid() {
		return svcErr.Invalid("coordinate out of range: %v,%v", coord.Latitude, coord.Longitude)
	}
	lat, lng := coord.Latitude, coord.Longitude
	if err := s.users.SetLocation(ctx, userID, &lat, &lng); err != nil {
		return err
	}
	s.appCtx.Logger.Debug("location updated", "user", userID)
	return nil
}

// GetProfile returns the public profile of id.
func (s *Service) GetProfile(ctx context.Context, id string) (*Profile, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p := toProfile(u)
	return &p, nil
}

func toCandidate(u *db.User) filter.Candidate {
	return filter.Candidate{
		ID:                u.ID,
		Age:               u.Age,
		Gender:            u.Gender,
		SexualOrientation: u.SexualOrientation,
		RelationshipType:  u.RelationshipType,
		HasChildren:       u.HasChildren,
		IsMonogamous:      u.IsMonogamous,
		Location:          geo.FromPtrs(u.Latitude, u.Longitude),
	}
}

func toProfile(u *db.User) Profile {
	return Profile{
		ID:                u.ID,
		Name:              u.Name,
		Age:               u.Age,
		Gender:            u.Gender,
		City:              u.City,
		Country:           u.Country,
		Description:       u.Description,
		SexualOrientation: u.SexualOrientation,
		RelationshipType:  u.RelationshipType,
		Photos:            []string(u.Photos),
		IsVerified:        u.IsVerified,
		IsSuperVerified:   u.IsSuperVerified,
		CreatedAt:         u.CreatedAt,
	}
}
