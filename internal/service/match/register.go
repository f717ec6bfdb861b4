package match

import (
	"google.golang.org/grpc"

	"github.com/oggyb/matchmaker/internal/server"
)

// Registrar ties the Match service into the gRPC server
type Registrar struct {
	svc *Service
}

// NewRegistrar creates a new Registrar for the Match service. The Service is
// shared with the other registrars that create or delete matches.
func NewRegistrar(svc *Service) *Registrar {
	return &Registrar{svc: svc}
}

// Register attaches the Match service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	h := &handlers{svc: r.svc}
	s.RegisterService(server.NewServiceDesc(ServiceName, []grpc.MethodDesc{
		server.Unary(ServiceName, "ListMatches", h.listMatches),
		server.Unary(ServiceName, "ListActiveMatches", h.listActiveMatches),
		server.Unary(ServiceName, "ListPendingMatches", h.listPendingMatches),
		server.Unary(ServiceName, "Unmatch", h.unmatch),
		server.Unary(ServiceName, "HasMessages", h.hasMessages),
	}), h)
}
