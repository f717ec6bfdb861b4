package match

import (
	"context"
	"fmt"
	"time"

	"github.com/oggyb/matchmaker/internal/app"
	"github.com/oggyb/matchmaker/internal/cascade"
	"github.com/oggyb/matchmaker/internal/db"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
	"github.com/oggyb/matchmaker/internal/metrics"
	"github.com/oggyb/matchmaker/internal/notify"
	"github.com/oggyb/matchmaker/internal/repository"
)

// Service owns the match lifecycle: creation, deletion and the
// pending → active transition.
type Service struct {
	appCtx   *app.AppContext
	matches  *repository.MatchRepository
	messages *repository.MessageRepository
	users    *repository.UserRepository
	likes    *repository.EdgeRepository
	dislikes *repository.EdgeRepository
}

// NewService creates a match Service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:   appCtx,
		matches:  repository.NewMatchRepository(appCtx.DB),
		messages: repository.NewMessageRepository(appCtx.DB),
		users:    repository.NewUserRepository(appCtx.DB),
		likes:    repository.NewLikeRepository(appCtx.DB),
		dislikes: repository.NewDislikeRepository(appCtx.DB),
	}
}

// PendingMatch is a match without messages, enriched for display.
type PendingMatch struct {
	MatchID   string
	UserID    string
	Name      string
	Age       int
	City      string
	Photo     string
	CreatedAt time.Time
}

// CreateMatch returns the match for {a, b}, creating it if needed.
//
// Behavior:
//   - Same id for (a, b) and (b, a); concurrent callers converge on one row.
//   - created is true only for the call that inserted the row. Both users
//     get a NewMatch notification on that call only.
//   - forcedBy marks admin-created matches; it is ignored if the match
//     already exists.
//   - Both users must exist and neither may be banned, forced or not.
func (s *Service) CreateMatch(ctx context.Context, a, b, forcedBy string) (string, bool, error) {
	if a == "" || b == "" {
		return "", false, svcErr.Invalid("both users are required")
	}
	if a == b {
		return "", false, svcErr.Invalid("cannot match a user with themselves")
	}
	if err := s.checkMatchable(ctx, a, b); err != nil {
		return "", false, err
	}

	m, created, err := s.matches.CreateIfAbsent(ctx, a, b, forcedBy)
	if err != nil {
		return "", false, fmt.Errorf("create match: %w", err)
	}
	if !created {
		s.appCtx.Logger.Debug("match already exists", "match_id", m.ID)
		return m.ID, false, nil
	}

	source := "mutual"
	if forcedBy != "" {
		source = "forced"
	}
	metrics.Matches.WithLabelValues(source).Inc()
	s.appCtx.Logger.Info("match created", "match_id", m.ID, "user_a", m.UserA, "user_b", m.UserB, "forced_by", forcedBy)

	notify.Send(ctx, s.appCtx.Notifier, s.appCtx.Logger, notify.NewMatch(a, b, m.ID))
	notify.Send(ctx, s.appCtx.Notifier, s.appCtx.Logger, notify.NewMatch(b, a, m.ID))

	return m.ID, true, nil
}

func (s *Service) checkMatchable(ctx context.Context, a, b string) error {
	users, err := s.users.GetMany(ctx, []string{a, b})
	if err != nil {
		return err
	}
	for _, id := range []string{a, b} {
		u, ok := users[id]
		if !ok {
			return svcErr.NotFound("user %s", id)
		}
		if u.IsBanned {
			return fmt.Errorf("%w: user %s is banned", svcErr.ErrPermissionDenied, id)
		}
	}
	return nil
}

// GetMatch loads a match by id.
func (s *Service) GetMatch(ctx context.Context, id string) (*db.Match, error) {
	return s.matches.Get(ctx, id)
}

// DeleteMatch removes the match and resets the pair to neutral.
//
// Steps, each idempotent and committed on its own:
//  1. likes between the pair, both directions
//  2. dislikes between the pair, both directions
//  3. the match with its chat and messages (one transaction)
//
// The match row goes last so a failed run can be repeated with the same id.
func (s *Service) DeleteMatch(ctx context.Context, id string) error {
	m, err := s.matches.Get(ctx, id)
	if err != nil {
		return err
	}
	a, b := m.UserA, m.UserB

	err = cascade.New(s.appCtx.Logger, "delete_match", "match_id", id).
		Then("likes", func(ctx context.Context) error {
			_, err := s.likes.DeleteBetween(ctx, a, b)
			return err
		}).
		Then("dislikes", func(ctx context.Context) error {
			_, err := s.dislikes.DeleteBetween(ctx, a, b)
			return err
		}).
		Then("match", func(ctx context.Context) error {
			_, err := s.matches.DeleteWithConversation(ctx, id)
			return err
		}).
		Run(ctx)
	if err != nil {
		metrics.CascadeFailures.WithLabelValues("delete_match").Inc()
		return err
	}

	// received-like counters of both users changed
	if err := s.appCtx.RedisCache.Del(ctx,
		s.appCtx.RedisCache.KeyForLikeCount(a), s.appCtx.RedisCache.KeyForLikeCount(b)); err != nil {
		s.appCtx.Logger.Warn("like count invalidation failed", "match_id", id, "err", err)
	}

	metrics.Unmatches.Inc()
	s.appCtx.Logger.Info("match deleted", "match_id", id, "user_a", a, "user_b", b)
	return nil
}

// Unmatch deletes a match on behalf of one of its participants.
func (s *Service) Unmatch(ctx context.Context, actor, id string) error {
	m, err := s.matches.Get(ctx, id)
	if err != nil {
		return err
	}
	if !m.Has(actor) {
		return fmt.Errorf("%w: %s is not part of match %s", svcErr.ErrPermissionDenied, actor, id)
	}
	return s.DeleteMatch(ctx, id)
}

// MarkMatchAsActive records that the match has messages. The transition is
// one-way; calling it on an active match is a no-op.
func (s *Service) MarkMatchAsActive(ctx context.Context, id string) error {
	n, err := s.matches.MarkActive(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		// already active, or missing
		if _, err := s.matches.Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// HasMessages reports whether the match has at least one message.
//
// A true flag is trusted. A false flag is checked against the messages
// table and repaired when messages are found.
func (s *Service) HasMessages(ctx context.Context, id string) (bool, error) {
	m, err := s.matches.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if m.HasMessages {
		return true, nil
	}
	found, err := s.messages.AnyForMatch(ctx, id)
	if err != nil {
		return false, err
	}
	if found {
		s.repair(ctx, id)
	}
	return found, nil
}

// GetMatches lists every match of the user, newest first.
func (s *Service) GetMatches(ctx context.Context, userID string) ([]db.Match, error) {
	return s.matches.ForUser(ctx, userID)
}

// GetActiveMatches lists matches with at least one message.
func (s *Service) GetActiveMatches(ctx context.Context, userID string) ([]db.Match, error) {
	all, err := s.matches.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	active, _, err := s.classify(ctx, all)
	return active, err
}

// GetPendingMatches lists matches without messages, enriched with the
// counterpart's name, age, city and first photo. Counterparts that no
// longer exist are skipped.
func (s *Service) GetPendingMatches(ctx context.Context, userID string) ([]PendingMatch, error) {
	all, err := s.matches.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	_, pending, err := s.classify(ctx, all)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(pending))
	for i := range pending {
		ids = append(ids, pending[i].Other(userID))
	}
	profiles, err := s.users.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]PendingMatch, 0, len(pending))
	for _, m := range pending {
		other := m.Other(userID)
		u, ok := profiles[other]
		if !ok {
			s.appCtx.Logger.Warn("pending match counterpart missing", "match_id", m.ID, "user", other)
			continue
		}
		out = append(out, PendingMatch{
			MatchID:   m.ID,
			UserID:    u.ID,
			Name:      u.Name,
			Age:       u.Age,
			City:      u.City,
			Photo:     u.FirstPhoto(),
			CreatedAt: m.CreatedAt,
		})
	}
	return out, nil
}

// classify splits matches into active and pending. Flags that say false are
// verified with one query and repaired when stale.
func (s *Service) classify(ctx context.Context, all []db.Match) (active, pending []db.Match, err error) {
	var unknown []string
	for i := range all {
		if !all[i].HasMessages {
			unknown = append(unknown, all[i].ID)
		}
	}
	withMessages, err := s.messages.MatchesWithMessages(ctx, unknown)
	if err != nil {
		return nil, nil, err
	}

	for _, m := range all {
		switch {
		case m.HasMessages:
			active = append(active, m)
		case withMessages[m.ID]:
			s.repair(ctx, m.ID)
			m.HasMessages = true
			active = append(active, m)
		default:
			pending = append(pending, m)
		}
	}
	return active, pending, nil
}

// repair sets a stale has_messages flag. Failures are logged only; the
// next read will try again.
func (s *Service) repair(ctx context.Context, id string) {
	if _, err := s.matches.MarkActive(ctx, id); err != nil {
		s.appCtx.Logger.Warn("has_messages repair failed", "match_id", id, "err", err)
		return
	}
	metrics.HasMessagesRepairs.Inc()
	s.appCtx.Logger.Debug("has_messages repaired", "match_id", id)
}
