package admin

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/oggyb/matchmaker/internal/db"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
	"github.com/oggyb/matchmaker/internal/repository"
)

const (
	defaultSearchPageSize = 20
	activeUserWindow      = 30 * 24 * time.Hour
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// SearchQuery narrows SearchUsers. Empty fields match everything.
type SearchQuery struct {
	// Text is matched case-insensitively against name, email and city.
	Text       string `json:"text" validate:"max=128"`
	Gender     string `json:"gender" validate:"max=32"`
	IsBanned   *bool  `json:"isBanned,omitempty"`
	IsVerified *bool  `json:"isVerified,omitempty"`
	// Page is 1-based; 0 means the first page.
	Page     int `json:"page" validate:"gte=0,lte=100000"`
	PageSize int `json:"pageSize" validate:"omitempty,gte=1,lte=100"`
}

// SearchResult is one page of matching users.
type SearchResult struct {
	Users    []db.User
	Total    int
	Page     int
	PageSize int
}

// SearchUsers filters the newest Admin.SearchScanLimit users in memory and
// returns the requested page. Users older than the scan window are not found.
func (s *Service) SearchUsers(ctx context.Context, adminID string, q SearchQuery) (*SearchResult, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if err := validate.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, svcErr.Invalid("search.%s failed %q", verrs[0].Field(), verrs[0].Tag())
		}
		return nil, svcErr.Invalid("search: %v", err)
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = defaultSearchPageSize
	}

	users, err := s.users.Recent(ctx, s.appCtx.Config.Admin.SearchScanLimit)
	if err != nil {
		return nil, err
	}

	text := strings.ToLower(strings.TrimSpace(q.Text))
	matched := make([]db.User, 0, len(users))
	for _, u := range users {
		if text != "" &&
			!strings.Contains(strings.ToLower(u.Name), text) &&
			!strings.Contains(strings.ToLower(u.Email), text) &&
			!strings.Contains(strings.ToLower(u.City), text) {
			continue
		}
		if q.Gender != "" && !strings.EqualFold(q.Gender, u.Gender) {
			continue
		}
		if q.IsBanned != nil && *q.IsBanned != u.IsBanned {
			continue
		}
		if q.IsVerified != nil && *q.IsVerified != u.IsVerified {
			continue
		}
		matched = append(matched, u)
	}

	res := &SearchResult{Total: len(matched), Page: q.Page, PageSize: q.PageSize}
	// compare page numbers before multiplying so a huge page cannot overflow
	if q.Page-1 < (len(matched)+q.PageSize-1)/q.PageSize {
		start := (q.Page - 1) * q.PageSize
		res.Users = matched[start:min(start+q.PageSize, len(matched))]
	}
	return res, nil
}

// UserDetails is the moderation view of one user.
type UserDetails struct {
	User           *db.User
	Matches        int
	LikesGiven     int
	LikesReceived  int64
	ReportsAgainst []db.Report
}

// GetUserDetails returns the moderation view of userID.
func (s *Service) GetUserDetails(ctx context.Context, adminID, userID string) (*UserDetails, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	matches, err := s.matches.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	given, err := s.likes.TargetsOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	received, err := s.likes.CountReceived(ctx, userID)
	if err != nil {
		return nil, err
	}
	reports, err := s.reports.Against(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserDetails{
		User:           u,
		Matches:        len(matches),
		LikesGiven:     len(given),
		LikesReceived:  received,
		ReportsAgainst: reports,
	}, nil
}

// AppStats is the admin dashboard summary.
type AppStats struct {
	Users repository.UserCounts
	// NewUsers registered in the last 30 days.
	NewUsers              int64
	Matches               int64
	ActiveMatches         int64
	Messages              int64
	Likes                 int64
	Dislikes              int64
	Reports               map[string]int64
	AverageMatchesPerUser float64
}

// GetAppStats computes the dashboard counters from the store.
func (s *Service) GetAppStats(ctx context.Context, adminID string) (*AppStats, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	var st AppStats
	var err error
	if st.Users, err = s.users.Counts(ctx); err != nil {
		return nil, err
	}
	if st.NewUsers, err = s.users.CountCreatedSince(ctx, time.Now().UTC().Add(-activeUserWindow)); err != nil {
		return nil, err
	}
	if st.Matches, st.ActiveMatches, err = s.matches.Counts(ctx); err != nil {
		return nil, err
	}
	if st.Messages, err = s.messages.Count(ctx); err != nil {
		return nil, err
	}
	if st.Likes, err = s.likes.Count(ctx); err != nil {
		return nil, err
	}
	if st.Dislikes, err = s.dislikes.Count(ctx); err != nil {
		return nil, err
	}
	if st.Reports, err = s.reports.CountByStatus(ctx); err != nil {
		return nil, err
	}
	if st.Users.Total > 0 {
		st.AverageMatchesPerUser = float64(st.Matches) / float64(st.Users.Total)
	}
	return &st, nil
}
