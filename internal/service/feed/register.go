package feed

import (
	"google.golang.org/grpc"

	"github.com/oggyb/matchmaker/internal/app"
	"github.com/oggyb/matchmaker/internal/server"
)

// Registrar ties the Feed service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the Feed service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the Feed service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	h := &handlers{svc: NewService(r.appCtx)}
	s.RegisterService(server.NewServiceDesc(ServiceName, []grpc.MethodDesc{
		server.Unary(ServiceName, "GetCandidates", h.getCandidates),
		server.Unary(ServiceName, "UpdateLocation", h.updateLocation),
		server.Unary(ServiceName, "GetProfile", h.getProfile),
	}), h)
}
