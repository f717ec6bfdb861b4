package interaction

import (
	"google.golang.org/grpc"

	"github.com/oggyb/matchmaker/internal/app"
	"github.com/oggyb/matchmaker/internal/server"
	"github.com/oggyb/matchmaker/internal/service/match"
)

// Registrar ties the Interaction service into the gRPC server
type Registrar struct {
	appCtx  *app.AppContext
	matches *match.Service
}

// NewRegistrar creates a new Registrar for the Interaction service
func NewRegistrar(appCtx *app.AppContext, matches *match.Service) *Registrar {
	return &Registrar{appCtx: appCtx, matches: matches}
}

// Register attaches the Interaction service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	h := &handlers{svc: NewService(r.appCtx, r.matches)}
	s.RegisterService(server.NewServiceDesc(ServiceName, []grpc.MethodDesc{
		server.Unary(ServiceName, "GiveLike", h.giveLike),
		server.Unary(ServiceName, "GiveDislike", h.giveDislike),
		server.Unary(ServiceName, "RemoveLike", h.removeLike),
		server.Unary(ServiceName, "RemoveDislike", h.removeDislike),
		server.Unary(ServiceName, "ListLikesReceived", h.listLikesReceived),
		server.Unary(ServiceName, "ListLikesGiven", h.listLikesGiven),
		server.Unary(ServiceName, "CountLikesReceived", h.countLikesReceived),
	}), h)
}
