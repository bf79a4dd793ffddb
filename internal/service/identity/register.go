package identity

import (
	"google.golang.org/grpc"

	"github.com/oggyb/callfirst/internal/api"
	"github.com/oggyb/callfirst/internal/app"
)

// Registrar ties the Identity service into the gRPC server
type Registrar struct {
	svc *Service
}

// NewRegistrar creates a new Registrar for the Identity service. The same
// Service backs the auth interceptor, see Service.
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{svc: NewIdentityService(appCtx)}
}

// Service returns the Identity service behind this registrar.
func (r *Registrar) Service() *Service { return r.svc }

// Register attaches the Identity service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	api.RegisterIdentityServer(s, NewHandler(r.svc))
}
