package interaction

import (
	"context"
	"fmt"
	"time"

	"github.com/oggyb/matchmaker/internal/app"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
	"github.com/oggyb/matchmaker/internal/metrics"
	"github.com/oggyb/matchmaker/internal/notify"
	"github.com/oggyb/matchmaker/internal/repository"
	"github.com/oggyb/matchmaker/internal/service/match"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service records likes and dislikes and turns reciprocal likes into
// matches. It contains the business logic on top of repository and cache
// layers.
type Service struct {
	appCtx   *app.AppContext
	users    *repository.UserRepository
	likes    *repository.EdgeRepository
	dislikes *repository.EdgeRepository
	matches  *match.Service
}

// NewService creates a new interaction Service with dependencies from AppContext.
func NewService(appCtx *app.AppContext, matches *match.Service) *Service {
	return &Service{
		appCtx:   appCtx,
		users:    repository.NewUserRepository(appCtx.DB),
		likes:    repository.NewLikeRepository(appCtx.DB),
		dislikes: repository.NewDislikeRepository(appCtx.DB),
		matches:  matches,
	}
}

// Result is the outcome of GiveLike.
type Result struct {
	IsMatch bool
	MatchID string
	// Duplicate is set when the like already existed and nothing changed.
	Duplicate bool
}

// Liker is one entry of the "liked you" list.
type Liker struct {
	UserID    string
	CreatedAt time.Time
}

// GiveLike records from → to and creates a match when it is reciprocal.
//
// Behavior:
//   - A repeated like is a no-op: no notification, IsMatch false.
//   - A dislike from → to is replaced by the like.
//   - Administrators match unconditionally.
//   - Otherwise a like to → from makes a match.
//   - The target is notified of the like on every non-duplicate call.
//
// Example:
//
//	svc.GiveLike(ctx, "ana", "carlos") // -> {IsMatch: false}
//	svc.GiveLike(ctx, "carlos", "ana") // -> {IsMatch: true, MatchID: "..."}
func (s *Service) GiveLike(ctx context.Context, from, to string) (Result, error) {
	s.appCtx.Logger.Debug("GiveLike called", "from", from, "to", to)

	sender, err := s.checkPair(ctx, from, to)
	if err != nil {
		return Result{}, err
	}

	// vote change; removed before the insert so a retry after a failure
	// still converges
	if _, err := s.dislikes.Delete(ctx, from, to); err != nil {
		return Result{}, fmt.Errorf("replace dislike: %w", err)
	}

	inserted, err := s.likes.Insert(ctx, from, to)
	if err != nil {
		return Result{}, fmt.Errorf("insert like: %w", err)
	}
	if !inserted {
		metrics.Interactions.WithLabelValues("like", "duplicate").Inc()
		s.appCtx.Logger.Debug("like already recorded", "from", from, "to", to)
		return Result{Duplicate: true}, nil
	}
	s.countNewLike(ctx, from, to)

	var reciprocal bool
	if !sender.IsAdmin {
		if reciprocal, err = s.likes.Exists(ctx, to, from); err != nil {
			return Result{}, fmt.Errorf("reciprocal check: %w", err)
		}
	}

	notify.Send(ctx, s.appCtx.Notifier, s.appCtx.Logger, notify.NewLike(to, from))

	if !sender.IsAdmin && !reciprocal {
		metrics.Interactions.WithLabelValues("like", "inserted").Inc()
		return Result{}, nil
	}

	// The like is already committed. A failure here leaves a like without a
	// match; CreateMatch is idempotent and the pair can be re-evaluated.
	matchID, _, err := s.matches.CreateMatch(ctx, from, to, "")
	if err != nil {
		return Result{}, err
	}
	metrics.Interactions.WithLabelValues("like", "match").Inc()
	return Result{IsMatch: true, MatchID: matchID}, nil
}

// GiveDislike records from → to. A like from → to is replaced. No match
// logic, no notification.
func (s *Service) GiveDislike(ctx context.Context, from, to string) (inserted bool, err error) {
	s.appCtx.Logger.Debug("GiveDislike called", "from", from, "to", to)

	if _, err := s.checkPair(ctx, from, to); err != nil {
		return false, err
	}

	removed, err := s.likes.Delete(ctx, from, to)
	if err != nil {
		return false, fmt.Errorf("replace like: %w", err)
	}

	inserted, err = s.dislikes.Insert(ctx, from, to)
	if err != nil {
		return false, fmt.Errorf("insert dislike: %w", err)
	}
	if removed > 0 || inserted {
		// to lost a like; from no longer sees to in "liked you"
		s.invalidateLikeCount(ctx, from, to)
	}
	outcome := "inserted"
	if !inserted {
		outcome = "duplicate"
	}
	metrics.Interactions.WithLabelValues("dislike", outcome).Inc()
	return inserted, nil
}

// RemoveLike deletes every like from → to. No-op when there is none.
func (s *Service) RemoveLike(ctx context.Context, from, to string) error {
	n, err := s.likes.Delete(ctx, from, to)
	if err != nil {
		return err
	}
	if n > 0 {
		s.invalidateLikeCount(ctx, to)
	}
	return nil
}

// RemoveDislike deletes every dislike from → to. No-op when there is none.
func (s *Service) RemoveDislike(ctx context.Context, from, to string) error {
	n, err := s.dislikes.Delete(ctx, from, to)
	if err != nil {
		return err
	}
	if n > 0 {
		s.invalidateLikeCount(ctx, from)
	}
	return nil
}

// RemoveAllLikesBetweenUsers deletes likes in both directions.
func (s *Service) RemoveAllLikesBetweenUsers(ctx context.Context, a, b string) error {
	n, err := s.likes.DeleteBetween(ctx, a, b)
	if err != nil {
		return err
	}
	if n > 0 {
		s.invalidateLikeCount(ctx, a, b)
	}
	return nil
}

// RemoveAllDislikesBetweenUsers deletes dislikes in both directions.
func (s *Service) RemoveAllDislikesBetweenUsers(ctx context.Context, a, b string) error {
	n, err := s.dislikes.DeleteBetween(ctx, a, b)
	if err != nil {
		return err
	}
	if n > 0 {
		// dislikes hide likers from the counts
		s.invalidateLikeCount(ctx, a, b)
	}
	return nil
}

// LikesReceived lists who liked the user, newest first, excluding people the
// user disliked. Supports cursor-based pagination.
func (s *Service) LikesReceived(ctx context.Context, userID, token string, limit int) ([]Liker, string, error) {
	if userID == "" {
		return nil, "", svcErr.Invalid("user id is required")
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)

	edges, next, err := s.likes.Received(ctx, userID, token, limit)
	if err != nil {
		s.appCtx.Logger.Error("Received failed", "user", userID, "err", err)
		return nil, "", err
	}
	out := make([]Liker, 0, len(edges))
	for _, e := range edges {
		out = append(out, Liker{UserID: e.FromUserID, CreatedAt: e.CreatedAt})
	}
	return out, next, nil
}

// LikesGiven lists the ids the user liked, newest first.
func (s *Service) LikesGiven(ctx context.Context, userID string) ([]string, error) {
	edges, err := s.likes.Sent(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.ToUserID)
	}
	return out, nil
}

// CountLikesReceived returns how many users liked the user.
// Cache-first strategy:
//  1. Attempts to read from Redis (likes:count:userID).
//  2. On a miss or cache error, falls back to the database.
//  3. On DB fetch, updates Redis with a 1h TTL.
func (s *Service) CountLikesReceived(ctx context.Context, userID string) (int64, error) {
	rc := s.appCtx.RedisCache
	if n, ok, err := rc.GetLikeCount(ctx, userID); err == nil && ok {
		return n, nil
	} else if err != nil {
		s.appCtx.Logger.Warn("like count cache read failed", "user", userID, "err", err)
	}

	count, err := s.likes.CountReceived(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := rc.SetLikeCount(ctx, userID, count); err != nil {
		s.appCtx.Logger.Warn("like count cache write failed", "user", userID, "err", err)
	}
	return count, nil
}

// checkPair validates ids and loads both users. Both must exist and
// neither may be banned; a banned target is reported as missing.
func (s *Service) checkPair(ctx context.Context, from, to string) (*senderInfo, error) {
	if from == "" || to == "" {
		return nil, svcErr.Invalid("both users are required")
	}
	if from == to {
		return nil, svcErr.Invalid("cannot vote on yourself")
	}
	users, err := s.users.GetMany(ctx, []string{from, to})
	if err != nil {
		return nil, err
	}
	sender, ok := users[from]
	if !ok {
		return nil, svcErr.NotFound("sender %s", from)
	}
	if sender.IsBanned {
		return nil, fmt.Errorf("%w: user %s is banned", svcErr.ErrPermissionDenied, from)
	}
	if target, ok := users[to]; !ok || target.IsBanned {
		return nil, svcErr.NotFound("user %s", to)
	}
	return &senderInfo{IsAdmin: sender.IsAdmin}, nil
}

type senderInfo struct {
	IsAdmin bool
}

// countNewLike bumps the cached count of to, unless to already disliked
// from and the like is hidden from them.
func (s *Service) countNewLike(ctx context.Context, from, to string) {
	hidden, err := s.dislikes.Exists(ctx, to, from)
	if err != nil {
		s.invalidateLikeCount(ctx, to)
		return
	}
	if hidden {
		return
	}
	if err := s.appCtx.RedisCache.AdjustLikeCount(ctx, to, 1); err != nil {
		s.appCtx.Logger.Warn("like count cache update failed", "user", to, "err", err)
	}
}

func (s *Service) invalidateLikeCount(ctx context.Context, users ...string) {
	keys := make([]string, 0, len(users))
	for _, u := range users {
		keys = append(keys, s.appCtx.RedisCache.KeyForLikeCount(u))
	}
	if err := s.appCtx.RedisCache.Del(ctx, keys...); err != nil {
		s.appCtx.Logger.Warn("like count invalidation failed", "users", users, "err", err)
	}
}
