package server

import "google.golang.org/grpc"

// Registrar attaches one callfirst.v1 service to the server. Each service
// package provides one built from the shared AppContext.
type Registrar interface {
	Register(s *grpc.Server)
}
