package call

import (
	"context"
	"math"

	"github.com/oggyb/callfirst/internal/api"
	"github.com/oggyb/callfirst/internal/db"
	svcErr "github.com/oggyb/callfirst/internal/errors"
)

// Handler exposes Controller as api.CallServer for the session's user.
type Handler struct {
	ctrl *Controller
}

func NewHandler(ctrl *Controller) *Handler {
	return &Handler{ctrl: ctrl}
}

func (h *Handler) GetCallEvent(ctx context.Context, req *api.CallEventRequest) (*api.GetCallEventResponse, error) {
	e, left, err := h.ctrl.GetCallEvent(ctx, api.ActorFrom(ctx), req.ID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.GetCallEventResponse{
		Event:            api.CallEventFromModel(e),
		RemainingSeconds: int64(math.Ceil(left.Seconds())),
	}, nil
}

func (h *Handler) SetCallEventState(ctx context.Context, req *api.SetCallEventStateRequest) (*api.EndCallResponse, error) {
	e, prompt, err := h.ctrl.SetCallEventState(ctx, api.ActorFrom(ctx), req.ID, db.CallState(req.State))
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return endResponse(e, prompt), nil
}

func (h *Handler) JoinCall(ctx context.Context, req *api.CallEventRequest) (*api.CallEventResponse, error) {
	e, err := h.ctrl.JoinCall(ctx, api.ActorFrom(ctx), req.ID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.CallEventResponse{Event: api.CallEventFromModel(e)}, nil
}

func (h *Handler) EndCall(ctx context.Context, req *api.CallEventRequest) (*api.EndCallResponse, error) {
	e, prompt, err := h.ctrl.EndCall(ctx, api.ActorFrom(ctx), req.ID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return endResponse(e, prompt), nil
}

func (h *Handler) CancelCall(ctx context.Context, req *api.CallEventRequest) (*api.CallEventResponse, error) {
	e, err := h.ctrl.CancelCall(ctx, api.ActorFrom(ctx), req.ID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.CallEventResponse{Event: api.CallEventFromModel(e)}, nil
}

func endResponse(e *db.CallEvent, prompt *FeedbackPrompt) *api.EndCallResponse {
	resp := &api.EndCallResponse{Event: api.CallEventFromModel(e)}
	if prompt != nil {
		resp.FeedbackPrompt = &api.FeedbackPrompt{CallEventID: prompt.CallEventID, UserID: prompt.UserID}
	}
	return resp
}
