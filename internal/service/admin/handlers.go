package admin

import (
	"context"
	"log/slog"
	"time"

	"github.com/oggyb/matchmaker/internal/db"
	"github.com/oggyb/matchmaker/internal/repository"
	"github.com/oggyb/matchmaker/internal/server"
	"github.com/oggyb/matchmaker/internal/session"
)

const (
	// ServiceName is the moderation service; every call requires an admin.
	ServiceName = "matchmaker.v1.AdminService"
	// ReportServiceName lets any signed-in user file a report.
	ReportServiceName = "matchmaker.v1.ReportService"
)

type userRequest struct {
	UserID string `json:"userId"`
}

type banRequest struct {
	UserID string `json:"userId"`
	Reason string `json:"reason"`
}

type forceMatchRequest struct {
	UserA string `json:"userA"`
	UserB string `json:"userB"`
}

type forceMatchResponse struct {
	MatchID string `json:"matchId"`
}

type verificationRequest struct {
	UserID string `json:"userId"`
	Level  Level  `json:"level"`
}

type reportRequest struct {
	UserID string `json:"userId"`
	Reason string `json:"reason"`
}

type listReportsRequest struct {
	Status string `json:"status"`
	Limit  int    `json:"limit"`
}

type reportStatusRequest struct {
	ReportID string `json:"reportId"`
	Status   string `json:"status"`
}

type userView struct {
	ID              string     `json:"id"`
	Email           string     `json:"email,omitempty"`
	Name            string     `json:"name"`
	Age             int        `json:"age"`
	Gender          string     `json:"gender,omitempty"`
	City            string     `json:"city,omitempty"`
	Country         string     `json:"country,omitempty"`
	IsVerified      bool       `json:"isVerified"`
	IsSuperVerified bool       `json:"isSuperVerified"`
	IsBanned        bool       `json:"isBanned"`
	BannedAt        *time.Time `json:"bannedAt,omitempty"`
	BannedBy        string     `json:"bannedBy,omitempty"`
	IsAdmin         bool       `json:"isAdmin"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type usersResponse struct {
	Users []userView `json:"users"`
}

type searchResponse struct {
	Users    []userView `json:"users"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"pageSize"`
}

type reportView struct {
	ID             string    `json:"id"`
	ReporterID     string    `json:"reporterId"`
	ReportedUserID string    `json:"reportedUserId"`
	Reason         string    `json:"reason"`
	Status         string    `json:"status"`
	UpdatedBy      string    `json:"updatedBy,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type reportsResponse struct {
	Reports []reportView `json:"reports"`
}

type detailsResponse struct {
	User           userView     `json:"user"`
	Matches        int          `json:"matches"`
	LikesGiven     int          `json:"likesGiven"`
	LikesReceived  int64        `json:"likesReceived"`
	ReportsAgainst []reportView `json:"reportsAgainst"`
}

type statsResponse struct {
	Users                 repository.UserCounts `json:"users"`
	NewUsers              int64                 `json:"newUsers"`
	Matches               int64                 `json:"matches"`
	ActiveMatches         int64                 `json:"activeMatches"`
	Messages              int64                 `json:"messages"`
	Likes                 int64                 `json:"likes"`
	Dislikes              int64                 `json:"dislikes"`
	Reports               map[string]int64      `json:"reports"`
	AverageMatchesPerUser float64               `json:"averageMatchesPerUser"`
}

type logView struct {
	ID           string         `json:"id"`
	AdminID      string         `json:"adminId"`
	Action       string         `json:"action"`
	TargetUserID string         `json:"targetUserId,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

type logsResponse struct {
	Logs []logView `json:"logs"`
}

type handlers struct {
	svc      *Service
	sessions *session.Store
	log      *slog.Logger
}

// refresh rewrites the cached session of a user whose flags changed so the
// auth interceptor sees the new state on the next call.
func (h *handlers) refresh(ctx context.Context, userID string) {
	if _, err := h.sessions.Refresh(ctx, userID); err != nil {
		h.log.Warn("session refresh failed", "user", userID, "err", err)
	}
}

func (h *handlers) banUser(ctx context.Context, req *banRequest) (*server.Empty, error) {
	actor, err := server.AdminActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.svc.BanUser(ctx, actor.UserID, req.UserID, req.Reason); err != nil {
		return nil, err
	}
	h.refresh(ctx, req.UserID)
	return &server.Empty{}, nil
}

func (h *handlers) unbanUser(ctx context.Context, req *userRequest) (*server.Empty, error) {
	actor, err := server.AdminActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.svc.UnbanUser(ctx, actor.UserID, req.UserID); err != nil {
		return nil, err
	}
	h.refresh(ctx, req.UserID)
	return &server.Empty{}, nil
}

func (h *handlers) deleteUser(ctx context.Context, req *userRequest) (*server.Empty, error) {
	actor, err := server.AdminActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.svc.DeleteUser(ctx, actor.UserID, req.UserID); err != nil {
		return nil, err
	}
	if err := h.sessions.Forget(ctx, req.UserID); err != nil {
		h.log.Warn("session forget failed", "user", req.UserID, "err", err)
	}
	return &server.Empty{}, nil
}

func (h *handlers) forceMatch(ctx context.Context, req *forceMatchRequest) (*forceMatchResponse, error) {
	actor, err := server.AdminActor(ctx)
	if err != nil {
		return nil, err
	}
	id, err := h.svc.ForceMatch(ctx, actor.UserID, req.UserA, req.UserB)
	if err != nil {
		return nil, err
	}
	return &forceMatchResponse{MatchID: id}, nil
}

func (h *handlers) addVerification(ctx context.Context, req *verificationRequest) (*server.Empty, error) {
	actor, err := server.AdminActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.svc.AddUserVerification(ctx, actor.UserID, req.UserID, req.Level); err != nil {
		return nil, err
	}
	h.refresh(ctx, req.UserID)
	return &server.Empty{}, nil
}

func (h *handlers) removeVerification(ctx context.Context, req *verificationRequest) (*server.Empty, error) {
	actor, err := server.AdminActor(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.svc.RemoveUserVerification(ctx, actor.UserID, req.UserID, req.Level); err != nil {
		return nil, err
	}
	h.refresh(ctx, req.UserID)
	return &server.Empty{}, nil
}

func (h *handlers) searchUsers(ctx context.Context, req *SearchQuery) (*searchResponse, error) {
	actor, err := server.AdminActor(ctx)
	if err != nil {
		return nil, err
	}
	res, err := h.svc.SearchUsers(ctx, actor.UserID, *req)
	if err != nil {
		return nil, err
	}
	return &searchResponse{
		Users:    toUserViews(res.Users),
		Total:    res.Total,
		Page:     res.Page,
		PageSize: res.PageSize,
	}, nil
}

func (h *handlers) bannedUsers(ctx context.Context, _ *server.Empty) (*usersResponse, error) {
	actor, err := server.AdminActor(ctx)
	if err != nil {
		return nil, err
	}
	users, err := h.svc.GetBannedUsers(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return &usersResponse{Users: toUserViews(users)}, nil
}

func (h *handlers) userDetails(ctx context.Context, req *userRequest) (*detailsResponse, error) {
	actor, err := server.AdminActor(ctx)
	if err != nil {
		return nil, err
	}
	d, err := h.svc.GetUserDetails(ctx, actor.UserID, req.UserID)
	if err != nil {
		return nil, err
	}
	return &detailsResponse{
		User:           toUserView(d.User),
		Matches:        d.Matches,
		LikesGiven:     d.LikesGiven,
		LikesReceived:  d.LikesReceived,
		ReportsAgainst: toReportViews(d.ReportsAgainst),
	}, nil
}

func (h *handlers) appStats(ctx context.Context, _ *server.Empty) (*statsResponse, error) {
	actor, err := server.AdminActor(ctx)
	if err != nil {
		return nil, err
	}
	st, err := h.svc.GetAppStats(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	resp := statsResponse(*st)
	return &resp, nil
}

func (h *handlers) adminLogs(ctx context.Context, _ *server.Empty) (*logsResponse, error) {
	actor, err := server.AdminActor(ctx)
	if err != nil {
		return nil, err
	}
	logs, err := h.svc.GetAdminLogs(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	resp := &logsResponse{Logs: make([]logView, 0, len(logs))}
	for _, l := range logs {
		resp.Logs = append(resp.Logs, logView{
			ID:           l.ID,
			AdminID:      l.AdminID,
			Action:       l.Action,
			TargetUserID: l.TargetUserID,
			Details:      l.Details,
			CreatedAt:    l.CreatedAt,
		})
	}
	return resp, nil
}

func (h *handlers) listReports(ctx context.Context, req *listReportsRequest) (*reportsResponse, error) {
	actor, err := server.AdminActor(ctx)
	if err != nil {
		return nil, err
	}
	reports, err := h.svc.ListReports(ctx, actor.UserID, req.Status, req.Limit)
	if err != nil {
		return nil, err
	}
	return &reportsResponse{Reports: toReportViews(reports)}, nil
}

func (h *handlers) updateReportStatus(ctx context.Context, req *reportStatusRequest) (*server.Empty, error) {
	actor, err := server.AdminActor(ctx)
	if err != nil {
		return nil, err
	}
	return &server.Empty{}, h.svc.UpdateReportStatus(ctx, actor.UserID, req.ReportID, req.Status)
}

func (h *handlers) reportUser(ctx context.Context, req *reportRequest) (*reportView, error) {
	actor, err := server.Actor(ctx)
	if err != nil {
		return nil, err
	}
	r, err := h.svc.CreateReport(ctx, actor.UserID, req.UserID, req.Reason)
	if err != nil {
		return nil, err
	}
	v := toReportView(r)
	return &v, nil
}

func toUserView(u *db.User) userView {
	return userView{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		Age:             u.Age,
		Gender:          u.Gender,
		City:            u.City,
		Country:         u.Country,
		IsVerified:      u.IsVerified,
		IsSuperVerified: u.IsSuperVerified,
		IsBanned:        u.IsBanned,
		BannedAt:        u.BannedAt,
		BannedBy:        u.BannedBy,
		IsAdmin:         u.IsAdmin,
		CreatedAt:       u.CreatedAt,
	}
}

func toUserViews(users []db.User) []userView {
	out := make([]userView, 0, len(users))
	for i := range users {
		out = append(out, toUserView(&users[i]))
	}
	return out
}

func toReportView(r *db.Report) reportView {
	return reportView{
		ID:             r.ID,
		ReporterID:     r.ReporterID,
		ReportedUserID: r.ReportedUserID,
		Reason:         r.Reason,
		Status:         r.Status,
		UpdatedBy:      r.UpdatedBy,
		CreatedAt:      r.CreatedAt,
	}
}

func toReportViews(reports []db.Report) []reportView {
	out := make([]reportView, 0, len(reports))
	for i := range reports {
		out = append(out, toReportView(&reports[i]))
	}
	return out
}
