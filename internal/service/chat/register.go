package chat

import (
	"google.golang.org/grpc"

	"github.com/oggyb/matchmaker/internal/app"
	"github.com/oggyb/matchmaker/internal/server"
	"github.com/oggyb/matchmaker/internal/service/match"
)

// Registrar ties the Chat service into the gRPC server
type Registrar struct {
	appCtx  *app.AppContext
	matches *match.Service
}

// NewRegistrar creates a new Registrar for the Chat service
func NewRegistrar(appCtx *app.AppContext, matches *match.Service) *Registrar {
	return &Registrar{appCtx: appCtx, matches: matches}
}

// Register attaches the Chat service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	h := &handlers{svc: NewService(r.appCtx, r.matches)}
	s.RegisterService(server.NewServiceDesc(ServiceName, []grpc.MethodDesc{
		server.Unary(ServiceName, "SendMessage", h.sendMessage),
		server.Unary(ServiceName, "GetMessages", h.getMessages),
		server.Unary(ServiceName, "MarkMessagesAsRead", h.markAsRead),
		server.Unary(ServiceName, "UnreadCount", h.unreadCount),
		server.Unary(ServiceName, "ListChats", h.listChats),
		server.Unary(ServiceName, "DeleteMessage", h.deleteMessage),
	}, server.ServerStream("Subscribe", h.subscribe)), h)
}
