package admin

import (
	"google.golang.org/grpc"

	"github.com/oggyb/matchmaker/internal/app"
	"github.com/oggyb/matchmaker/internal/server"
	"github.com/oggyb/matchmaker/internal/service/match"
	"github.com/oggyb/matchmaker/internal/session"
)

// Registrar ties the Admin and Report services into the gRPC server
type Registrar struct {
	appCtx   *app.AppContext
	matches  *match.Service
	sessions *session.Store
}

// NewRegistrar creates a new Registrar for the Admin service. sessions is
// refreshed whenever a moderation call changes a user's flags.
func NewRegistrar(appCtx *app.AppContext, matches *match.Service, sessions *session.Store) *Registrar {
	return &Registrar{appCtx: appCtx, matches: matches, sessions: sessions}
}

// Register attaches the Admin and Report service implementations to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	h := &handlers{
		svc:      NewService(r.appCtx, r.matches),
		sessions: r.sessions,
		log:      r.appCtx.Logger.With("service", "admin"),
	}
	s.RegisterService(server.NewServiceDesc(ServiceName, []grpc.MethodDesc{
		server.Unary(ServiceName, "BanUser", h.banUser),
		server.Unary(ServiceName, "UnbanUser", h.unbanUser),
		server.Unary(ServiceName, "DeleteUser", h.deleteUser),
		server.Unary(ServiceName, "ForceMatch", h.forceMatch),
		server.Unary(ServiceName, "AddVerification", h.addVerification),
		server.Unary(ServiceName, "RemoveVerification", h.removeVerification),
		server.Unary(ServiceName, "SearchUsers", h.searchUsers),
		server.Unary(ServiceName, "GetBannedUsers", h.bannedUsers),
		server.Unary(ServiceName, "GetUserDetails", h.userDetails),
		server.Unary(ServiceName, "GetAppStats", h.appStats),
		server.Unary(ServiceName, "GetAdminLogs", h.adminLogs),
		server.Unary(ServiceName, "ListReports", h.listReports),
		server.Unary(ServiceName, "UpdateReportStatus", h.updateReportStatus),
	}), h)
	s.RegisterService(server.NewServiceDesc(ReportServiceName, []grpc.MethodDesc{
		server.Unary(ReportServiceName, "ReportUser", h.reportUser),
	}), h)
}
