package call

import (
	"google.golang.org/grpc"

	"github.com/oggyb/callfirst/internal/api"
	"github.com/oggyb/callfirst/internal/app"
)

// Registrar ties the Call service into the gRPC server. It owns the single
// Controller so the missed-call sweeper and the handlers share countdowns.
type Registrar struct {
	ctrl *Controller
}

// NewRegistrar creates a new Registrar for the Call service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{ctrl: NewController(appCtx)}
}

// Controller returns the controller behind the registered handler.
func (r *Registrar) Controller() *Controller {
	return r.ctrl
}

// Register attaches the Call service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	api.RegisterCallServer(s, NewHandler(r.ctrl))
}
