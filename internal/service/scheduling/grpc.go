package scheduling

import (
	"context"

	"github.com/oggyb/callfirst/internal/api"
	"github.com/oggyb/callfirst/internal/db"
	svcErr "github.com/oggyb/callfirst/internal/errors"
)

// Handler exposes Service as api.SchedulingServer for the session's user.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) CreateProposal(ctx context.Context, req *api.CreateProposalRequest) (*api.ProposalResponse, error) {
	p, err := h.svc.CreateProposal(ctx, api.ActorFrom(ctx), req.ThreadID, db.CallType(req.CallType), req.Slots)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.ProposalResponse{Proposal: api.ProposalFromModel(p)}, nil
}

func (h *Handler) GetLatestProposal(ctx context.Context, req *api.GetLatestProposalRequest) (*api.ProposalResponse, error) {
	p, err := h.svc.GetLatestProposal(ctx, api.ActorFrom(ctx), req.ThreadID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.ProposalResponse{Proposal: api.ProposalFromModel(p)}, nil
}

func (h *Handler) ConfirmSlot(ctx context.Context, req *api.ConfirmSlotRequest) (*api.CallEventResponse, error) {
	e, err := h.svc.ConfirmSlot(ctx, api.ActorFrom(ctx), req.ThreadID, req.Slot)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.CallEventResponse{Event: api.CallEventFromModel(e)}, nil
}

func (h *Handler) GetUpcomingCall(ctx context.Context, req *api.GetUpcomingCallRequest) (*api.CallEventResponse, error) {
	e, err := h.svc.GetUpcomingCall(ctx, api.ActorFrom(ctx), req.ThreadID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.CallEventResponse{Event: api.CallEventFromModel(e)}, nil
}

func (h *Handler) GetThread(ctx context.Context, req *api.GetThreadRequest) (*api.ThreadResponse, error) {
	th, err := h.svc.GetThread(ctx, api.ActorFrom(ctx), req.ThreadID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.ThreadResponse{Thread: api.ThreadFromModel(th)}, nil
}
