package inbox

import (
	"google.golang.org/grpc"

	"github.com/oggyb/matchmaker/internal/app"
	"github.com/oggyb/matchmaker/internal/server"
)

// Registrar ties the Inbox service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the Inbox service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	h := &handlers{svc: NewService(r.appCtx)}
	s.RegisterService(server.NewServiceDesc(ServiceName, []grpc.MethodDesc{
		server.Unary(ServiceName, "ListNotifications", h.list),
		server.Unary(ServiceName, "MarkNotificationsRead", h.markRead),
	}), h)
}
