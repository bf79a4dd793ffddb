package safety

import (
	"google.golang.org/grpc"

	"github.com/oggyb/callfirst/internal/api"
	"github.com/oggyb/callfirst/internal/app"
)

// Registrar ties the Safety service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the Safety service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the Safety service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	api.RegisterSafetyServer(s, NewHandler(NewSafetyService(r.appCtx)))
}
