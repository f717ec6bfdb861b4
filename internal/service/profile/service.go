// Package profile owns the caller's own user row: first registration and
// the device token used for push delivery.
package profile

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/oggyb/matchmaker/internal/app"
	"github.com/oggyb/matchmaker/internal/db"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
	"github.com/oggyb/matchmaker/internal/repository"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Details is what a client supplies on registration.
type Details struct {
	Name        string   `json:"name" validate:"required,max=128"`
	Email       string   `json:"email" validate:"omitempty,email,max=255"`
	Age         int      `json:"age" validate:"omitempty,gte=18,lte=120"`
	Gender      string   `json:"gender" validate:"max=32"`
	Country     string   `json:"country" validate:"max=128"`
	City        string   `json:"city" validate:"max=128"`
	Description string   `json:"description" validate:"max=2000"`
	Photos      []string `json:"photos" validate:"max=9,dive,required,max=512"`
}

type Service struct {
	appCtx *app.AppContext
	users  *repository.UserRepository
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx, users: repository.NewUserRepository(appCtx.DB)}
}

// Register creates the row for userID, the identity provider's subject.
//
// Behavior:
//   - The first call inserts the row and returns created = true.
//   - Later calls leave the stored row untouched and return it, so a client
//     may call Register on every sign-in.
func (s *Service) Register(ctx context.Context, userID string, d Details) (*db.User, bool, error) {
	if userID == "" {
		return nil, false, svcErr.Invalid("user id is required")
	}
	d.Name = strings.TrimSpace(d.Name)
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, false, svcErr.Invalid("profile.%s failed %q", verrs[0].Field(), verrs[0].Tag())
		}
		return nil, false, svcErr.Invalid("profile: %v", err)
	}

	created, err := s.users.CreateIfAbsent(ctx, &db.User{
		ID:          userID,
		Email:       d.Email,
		Name:        d.Name,
		Age:         d.Age,
		Gender:      d.Gender,
		Country:     d.Country,
		City:        d.City,
		Description: d.Description,
		Photos:      d.Photos,
	})
	if err != nil {
		return nil, false, err
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.appCtx.Logger.Info("user registered", "user", userID)
	}
	return u, created, nil
}

// SetPushToken stores the FCM device token of userID. An empty token turns
// push delivery off for the user.
func (s *Service) SetPushToken(ctx context.Context, userID, token string) error {
	if userID == "" {
		return svcErr.Invalid("user id is required")
	}
	token = strings.TrimSpace(token)
	if len(token) > 512 {
		return svcErr.Invalid("push token is too long")
	}
	if err := s.users.SetPushToken(ctx, userID, token); err != nil {
		return err
	}
	s.appCtx.Logger.Debug("push token stored", "user", userID, "cleared", token == "")
	return nil
}
