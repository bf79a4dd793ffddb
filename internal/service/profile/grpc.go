package profile

import (
	"context"

	"github.com/oggyb/callfirst/internal/api"
	svcErr "github.com/oggyb/callfirst/internal/errors"
)

// Handler exposes Service as api.ProfileServer for the session's user.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) GetProfile(ctx context.Context, req *api.GetProfileRequest) (*api.ProfileResponse, error) {
	p, err := h.svc.GetProfile(ctx, req.ID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.ProfileResponse{Profile: api.ProfileFromModel(p, h.svc.appCtx.Now())}, nil
}

func (h *Handler) CreateProfile(ctx context.Context, req *api.CreateProfileRequest) (*api.ProfileResponse, error) {
	p, err := h.svc.CreateProfile(ctx, api.ActorFrom(ctx), req.Profile)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.ProfileResponse{Profile: api.ProfileFromModel(p, h.svc.appCtx.Now())}, nil
}

func (h *Handler) UpdateProfile(ctx context.Context, req *api.UpdateProfileRequest) (*api.ProfileResponse, error) {
	p, err := h.svc.UpdateProfile(ctx, api.ActorFrom(ctx), req.ID, req.Patch)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.ProfileResponse{Profile: api.ProfileFromModel(p, h.svc.appCtx.Now())}, nil
}

func (h *Handler) ListCandidates(ctx context.Context, _ *api.ListCandidatesRequest) (*api.ListCandidatesResponse, error) {
	profiles, err := h.svc.ListCandidates(ctx, api.ActorFrom(ctx))
	if err != nil {
		return nil, svcErr.Map(err)
	}
	now := h.svc.appCtx.Now()
	resp := &api.ListCandidatesResponse{Profiles: make([]*api.Profile, 0, len(profiles))}
	for i := range profiles {
		resp.Profiles = append(resp.Profiles, api.ProfileFromModel(&profiles[i], now))
	}
	return resp, nil
}
