package scheduling

import (
	"google.golang.org/grpc"

	"github.com/oggyb/callfirst/internal/api"
	"github.com/oggyb/callfirst/internal/app"
)

// Registrar ties the Scheduling service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the Scheduling service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the Scheduling service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	api.RegisterSchedulingServer(s, NewHandler(NewSchedulingService(r.appCtx)))
}
