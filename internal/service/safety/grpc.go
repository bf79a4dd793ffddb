package safety

import (
	"context"

	"github.com/oggyb/callfirst/internal/api"
	"github.com/oggyb/callfirst/internal/db"
	svcErr "github.com/oggyb/callfirst/internal/errors"
)

// Handler exposes Service as api.SafetyServer for the session's user.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) BlockUser(ctx context.Context, req *api.BlockUserRequest) (*api.Empty, error) {
	if err := h.svc.BlockUser(ctx, api.ActorFrom(ctx), req.UserID); err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.Empty{}, nil
}

func (h *Handler) ReportUser(ctx context.Context, req *api.ReportUserRequest) (*api.Empty, error) {
	err := h.svc.ReportUser(ctx, api.ActorFrom(ctx), req.UserID, db.ReportCategory(req.Category), req.Notes)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.Empty{}, nil
}

func (h *Handler) SubmitFeedback(ctx context.Context, req *api.SubmitFeedbackRequest) (*api.Empty, error) {
	err := h.svc.SubmitFeedback(ctx, api.ActorFrom(ctx), req.CallEventID, db.FeedbackRating(req.Rating))
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.Empty{}, nil
}
