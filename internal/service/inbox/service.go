// Package inbox serves the in-app notifications written by notify.InApp.
package inbox

import (
	"context"

	"github.com/oggyb/matchmaker/internal/app"
	"github.com/oggyb/matchmaker/internal/db"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
	"github.com/oggyb/matchmaker/internal/repository"
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type Service struct {
	appCtx        *app.AppContext
	notifications *repository.NotificationRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:        appCtx,
		notifications: repository.NewNotificationRepository(appCtx.DB),
	}
}

// List returns the newest notifications of userID. limit 0 means the default
// page; anything above maxLimit is clamped.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]db.Notification, error) {
	if userID == "" {
		return nil, svcErr.Invalid("user id is required")
	}
	switch {
	case limit < 0:
		return nil, svcErr.Invalid("limit must not be negative")
	case limit == 0:
		limit = defaultLimit
	case limit > maxLimit:
		limit = maxLimit
	}
	return s.notifications.ForUser(ctx, userID, limit)
}

// MarkRead marks the given notifications of userID as read, or all of them
// when ids is empty. Ids belonging to other users are ignored.
func (s *Service) MarkRead(ctx context.Context, userID string, ids ...string) (int64, error) {
	if userID == "" {
		return 0, svcErr.Invalid("user id is required")
	}
	n, err := s.notifications.MarkRead(ctx, userID, ids...)
	if err != nil {
		return 0, err
	}
	s.appCtx.Logger.Debug("notifications marked read", "user", userID, "count", n)
	return n, nil
}
