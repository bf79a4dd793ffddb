package matching

import (
	"context"

	"github.com/oggyb/callfirst/internal/api"
	"github.com/oggyb/callfirst/internal/db"
	svcErr "github.com/oggyb/callfirst/internal/errors"
)

// Handler exposes Service as api.MatchingServer for the session's user.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RecordSwipe(ctx context.Context, req *api.RecordSwipeRequest) (*api.RecordSwipeResponse, error) {
	res, err := h.svc.RecordSwipe(ctx, api.ActorFrom(ctx), req.ToID, db.SwipeAction(req.Action))
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.RecordSwipeResponse{IsMatch: res.IsMatch, MatchID: res.MatchID}, nil
}

func (h *Handler) ListMatches(ctx context.Context, _ *api.ListMatchesRequest) (*api.ListMatchesResponse, error) {
	matches, err := h.svc.ListMatches(ctx, api.ActorFrom(ctx))
	if err != nil {
		return nil, svcErr.Map(err)
	}
	resp := &api.ListMatchesResponse{Matches: make([]*api.Match, 0, len(matches))}
	for i := range matches {
		resp.Matches = append(resp.Matches, api.MatchFromModel(&matches[i]))
	}
	return resp, nil
}

func (h *Handler) GetMatch(ctx context.Context, req *api.GetMatchRequest) (*api.MatchResponse, error) {
	m, err := h.svc.GetMatch(ctx, api.ActorFrom(ctx), req.ID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.MatchResponse{Match: api.MatchFromModel(m)}, nil
}

func (h *Handler) GetThreadForMatch(ctx context.Context, req *api.GetThreadForMatchRequest) (*api.ThreadResponse, error) {
	th, err := h.svc.GetThreadForMatch(ctx, api.ActorFrom(ctx), req.MatchID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.ThreadResponse{Thread: api.ThreadFromModel(th)}, nil
}

func (h *Handler) ListLikedYou(ctx context.Context, req *api.ListLikedYouRequest) (*api.ListLikedYouResponse, error) {
	swipes, next, err := h.svc.ListLikedYou(ctx, api.ActorFrom(ctx), req.PaginationToken)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	resp := &api.ListLikedYouResponse{Likers: make([]api.Liker, 0, len(swipes)), NextPaginationToken: next}
	for _, sw := range swipes {
		resp.Likers = append(resp.Likers, api.Liker{
			UserID:        sw.FromID,
			UnixTimestamp: uint64(sw.CreatedAt.UnixMilli()),
		})
	}
	return resp, nil
}

func (h *Handler) CountLikedYou(ctx context.Context, _ *api.CountLikedYouRequest) (*api.CountLikedYouResponse, error) {
	count, err := h.svc.CountLikedYou(ctx, api.ActorFrom(ctx))
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.CountLikedYouResponse{Count: uint64(count)}, nil
}
