package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/oggyb/matchmaker/internal/app"
	"github.com/oggyb/matchmaker/internal/cascade"
	"github.com/oggyb/matchmaker/internal/db"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
	"github.com/oggyb/matchmaker/internal/metrics"
	"github.com/oggyb/matchmaker/internal/repository"
	"github.com/oggyb/matchmaker/internal/service/match"
)

// Audit actions.
const (
	ActionBan                = "ban_user"
	ActionUnban              = "unban_user"
	ActionDelete             = "delete_user"
	ActionForceMatch         = "force_match"
	ActionAddVerification    = "add_verification"
	ActionRemoveVerification = "remove_verification"
	ActionUpdateReportStatus = "update_report_status"
)

// Level is a verification tier.
type Level string

const (
	LevelStandard Level = "standard"
	LevelSuper    Level = "super"
)

// Service implements the moderation tools. Every method that takes an
// adminID checks that the caller is an administrator.
type Service struct {
	appCtx   *app.AppContext
	matchSvc *match.Service
	users    *repository.UserRepository
	matches  *repository.MatchRepository
	messages *repository.MessageRepository
	likes    *repository.EdgeRepository
	dislikes *repository.EdgeRepository
	reports  *repository.ReportRepository
	logs     *repository.AdminLogRepository
	inbox    *repository.NotificationRepository
}

// NewService creates an admin Service with dependencies from AppContext.
func NewService(appCtx *app.AppContext, matches *match.Service) *Service {
	return &Service{
		appCtx:   appCtx,
		matchSvc: matches,
		users:    repository.NewUserRepository(appCtx.DB),
		matches:  repository.NewMatchRepository(appCtx.DB),
		messages: repository.NewMessageRepository(appCtx.DB),
		likes:    repository.NewLikeRepository(appCtx.DB),
		dislikes: repository.NewDislikeRepository(appCtx.DB),
		reports:  repository.NewReportRepository(appCtx.DB),
		inbox:    repository.NewNotificationRepository(appCtx.DB),
		logs:     repository.NewAdminLogRepository(appCtx.DB),
	}
}

// BanUser flags the user as banned and deletes all of their matches with the
// conversations attached. Likes and dislikes are kept so an unban restores
// the user's history minus the matches.
func (s *Service) BanUser(ctx context.Context, adminID, userID, reason string) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	if adminID == userID {
		return svcErr.Invalid("administrators cannot ban themselves")
	}
	if _, err := s.users.Get(ctx, userID); err != nil {
		return err
	}

	var removed int64
	err := cascade.New(s.appCtx.Logger, "ban_user", "user", userID).
		Then("flag", func(ctx context.Context) error {
			return s.users.SetBanned(ctx, userID, adminID, time.Now().UTC())
		}).
		Then("matches", func(ctx context.Context) error {
			n, err := s.deleteMatchesOf(ctx, userID)
			removed = n
			return err
		}).
		Run(ctx)
	if err != nil {
		metrics.CascadeFailures.WithLabelValues("ban_user").Inc()
		return err
	}

	s.audit(ctx, adminID, ActionBan, userID, map[string]any{"reason": reason, "matchesRemoved": removed})
	s.appCtx.Logger.Info("user banned", "user", userID, "admin", adminID, "matches_removed", removed)
	return nil
}

// UnbanUser clears the ban flags. Deleted matches are not restored.
func (s *Service) UnbanUser(ctx context.Context, adminID, userID string) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	if _, err := s.users.Get(ctx, userID); err != nil {
		return err
	}
	if err := s.users.ClearBan(ctx, userID); err != nil {
		return err
	}
	s.audit(ctx, adminID, ActionUnban, userID, nil)
	return nil
}

// DeleteUser removes the user and everything that points at them.
//
// Steps, each idempotent:
//  1. matches with their chats and messages
//  2. messages the user sent elsewhere
//  3. reports filed against the user
//  4. likes and dislikes in either direction
//  5. the user row
//
// The user row goes last so a failed run can be repeated.
func (s *Service) DeleteUser(ctx context.Context, adminID, userID string) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	if adminID == userID {
		return svcErr.Invalid("administrators cannot delete themselves")
	}
	if _, err := s.users.Get(ctx, userID); err != nil {
		return err
	}
	// their likes count towards other users' cached totals
	liked, err := s.likes.TargetsOf(ctx, userID)
	if err != nil {
		return err
	}

	err = cascade.New(s.appCtx.Logger, "delete_user", "user", userID).
		Then("matches", func(ctx context.Context) error {
			_, err := s.deleteMatchesOf(ctx, userID)
			return err
		}).
		Then("messages", func(ctx context.Context) error {
			_, err := s.messages.DeleteBySender(ctx, userID)
			return err
		}).
		Then("reports", func(ctx context.Context) error {
			_, err := s.reports.DeleteAgainst(ctx, userID)
			return err
		}).
		Then("likes", func(ctx context.Context) error {
			_, err := s.likes.DeleteInvolving(ctx, userID)
			return err
		}).
		Then("dislikes", func(ctx context.Context) error {
			_, err := s.dislikes.DeleteInvolving(ctx, userID)
			return err
		}).
		Then("notifications", func(ctx context.Context) error {
			_, err := s.inbox.DeleteForUser(ctx, userID)
			return err
		}).
		Then("user", func(ctx context.Context) error {
			_, err := s.users.Delete(ctx, userID)
			return err
		}).
		Run(ctx)
	if err != nil {
		metrics.CascadeFailures.WithLabelValues("delete_user").Inc()
		return err
	}

	keys := []string{s.appCtx.RedisCache.KeyForLikeCount(userID), s.appCtx.RedisCache.KeyForSession(userID)}
	for _, id := range liked {
		keys = append(keys, s.appCtx.RedisCache.KeyForLikeCount(id))
	}
	if err := s.appCtx.RedisCache.Del(ctx, keys...); err != nil {
		s.appCtx.Logger.Warn("cache cleanup after delete failed", "user", userID, "err", err)
	}

	s.audit(ctx, adminID, ActionDelete, userID, nil)
	s.appCtx.Logger.Info("user deleted", "user", userID, "admin", adminID)
	return nil
}

// ForceMatch creates a match between a and b regardless of likes.
func (s *Service) ForceMatch(ctx context.Context, adminID, a, b string) (string, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return "", err
	}
	// CreateMatch refuses unknown and banned users
	id, created, err := s.matchSvc.CreateMatch(ctx, a, b, adminID)
	if err != nil {
		return "", err
	}
	s.audit(ctx, adminID, ActionForceMatch, a, map[string]any{"otherUserId": b, "matchId": id, "created": created})
	return id, nil
}

// AddUserVerification grants a verification level. Super verification
// implies the standard one.
func (s *Service) AddUserVerification(ctx context.Context, adminID, userID string, level Level) error {
	now := time.Now().UTC()
	var fields map[string]any
	switch level {
	case LevelStandard:
		fields = map[string]any{"is_verified": true, "verified_at": now}
	case LevelSuper:
		fields = map[string]any{"is_verified": true, "is_super_verified": true, "super_verified_at": now}
	default:
		return svcErr.Invalid("unknown verification level %q", level)
	}
	return s.setVerification(ctx, adminID, userID, level, fields, ActionAddVerification)
}

// RemoveUserVerification revokes a level. Revoking the standard level also
// revokes super.
func (s *Service) RemoveUserVerification(ctx context.Context, adminID, userID string, level Level) error {
	var fields map[string]any
	switch level {
	case LevelStandard:
		fields = map[string]any{
			"is_verified": false, "verified_at": nil,
			"is_super_verified": false, "super_verified_at": nil,
		}
	case LevelSuper:
		fields = map[string]any{"is_super_verified": false, "super_verified_at": nil}
	default:
		return svcErr.Invalid("unknown verification level %q", level)
	}
	return s.setVerification(ctx, adminID, userID, level, fields, ActionRemoveVerification)
}

func (s *Service) setVerification(ctx context.Context, adminID, userID string, level Level, fields map[string]any, action string) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	if _, err := s.users.Get(ctx, userID); err != nil {
		return err
	}
	if err := s.users.Update(ctx, userID, fields); err != nil {
		return err
	}
	s.audit(ctx, adminID, action, userID, map[string]any{"level": string(level)})
	return nil
}

// GetBannedUsers lists banned users, most recently banned first.
func (s *Service) GetBannedUsers(ctx context.Context, adminID string) ([]db.User, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	return s.users.Banned(ctx)
}

// GetAdminLogs returns the newest audit entries, bounded by Admin.LogLimit.
func (s *Service) GetAdminLogs(ctx context.Context, adminID string) ([]db.AdminLog, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	return s.logs.Recent(ctx, s.appCtx.Config.Admin.LogLimit)
}

// deleteMatchesOf removes every match of userID with its conversation.
func (s *Service) deleteMatchesOf(ctx context.Context, userID string) (int64, error) {
	matches, err := s.matches.ForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(matches) == 0 {
		return 0, nil
	}
	ids := make([]string, 0, len(matches))
	for i := range matches {
		ids = append(ids, matches[i].ID)
	}
	return s.matches.DeleteWithConversation(ctx, ids...)
}

func (s *Service) requireAdmin(ctx context.Context, adminID string) error {
	if adminID == "" {
		return fmt.Errorf("%w: no acting administrator", svcErr.ErrPermissionDenied)
	}
	u, err := s.users.Get(ctx, adminID)
	if err != nil {
		return err
	}
	if !u.IsAdmin || u.IsBanned {
		return fmt.Errorf("%w: %s is not an administrator", svcErr.ErrPermissionDenied, adminID)
	}
	return nil
}

// audit records an action. Failures are logged and never fail the action.
func (s *Service) audit(ctx context.Context, adminID, action, target string, details map[string]any) {
	metrics.AdminActions.WithLabelValues(action).Inc()
	entry := &db.AdminLog{AdminID: adminID, Action: action, TargetUserID: target, Details: details}
	if err := s.logs.Create(ctx, entry); err != nil {
		s.appCtx.Logger.Warn("admin log write failed", "action", action, "admin", adminID, "err", err)
	}
}
