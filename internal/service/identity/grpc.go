package identity

import (
	"context"

	"github.com/oggyb/callfirst/internal/api"
	svcErr "github.com/oggyb/callfirst/internal/errors"
)

// Handler exposes Service as api.IdentityServer.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) SignUp(ctx context.Context, req *api.SignUpRequest) (*api.SessionResponse, error) {
	sess, err := h.svc.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.SessionResponse{Session: sess}, nil
}

func (h *Handler) RequestPhoneCode(ctx context.Context, req *api.RequestPhoneCodeRequest) (*api.RequestPhoneCodeResponse, error) {
	ttl, err := h.svc.RequestPhoneCode(ctx, req.Phone)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.RequestPhoneCodeResponse{ExpiresInSeconds: int64(ttl.Seconds())}, nil
}

func (h *Handler) EstablishSession(ctx context.Context, req *api.EstablishSessionRequest) (*api.SessionResponse, error) {
	sess, err := h.svc.EstablishSession(ctx, req)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.SessionResponse{Session: sess}, nil
}

func (h *Handler) GetSession(ctx context.Context, req *api.GetSessionRequest) (*api.GetSessionResponse, error) {
	sess, err := h.svc.GetSession(ctx, req.Token)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.GetSessionResponse{Session: sess}, nil
}

func (h *Handler) EndSession(ctx context.Context, req *api.EndSessionRequest) (*api.Empty, error) {
	if err := h.svc.EndSession(ctx, req.Token); err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.Empty{}, nil
}
