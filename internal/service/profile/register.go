package profile

import (
	"google.golang.org/grpc"

	"github.com/oggyb/callfirst/internal/api"
	"github.com/oggyb/callfirst/internal/app"
)

// Registrar ties the Profile service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the Profile service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the Profile service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	api.RegisterProfileServer(s, NewHandler(NewProfileService(r.appCtx)))
}
