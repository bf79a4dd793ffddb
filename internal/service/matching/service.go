package matching

import (
	"context"
	"errors"

	"github.com/oggyb/callfirst/internal/app"
	"github.com/oggyb/callfirst/internal/db"
	svcErr "github.com/oggyb/callfirst/internal/errors"
)

// LikedYouPageSize is the page size of ListLikedYou.
const LikedYouPageSize = 5

// SwipeResult reports whether a swipe produced (or hit) an active match.
type SwipeResult struct {
	IsMatch bool
	MatchID string
}

// Service records swipes and turns mutual likes into matches.
type Service struct {
	appCtx *app.AppContext
}

func NewMatchingService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx}
}

// RecordSwipe appends a like or pass from actor to toID.
//
// Behavior:
//   - Self swipes are InvalidInput, unknown targets Precondition, and a block
//     in either direction Conflict. Nothing is written in those cases.
//   - The swipe is always stored; swipes are append-only and only the latest
//     one per direction counts.
//   - A like creates an active Match with a pending CallThread when toID's
//     latest swipe on actor is a like, or when auto-match is enabled.
//   - If the pair is already matched: active → IsMatch with the existing id,
//     archived or blocked → no match. A match is never created twice.
//
// Example:
//
//	svc.RecordSwipe(ctx, "alex", "blair", db.SwipeLike)
func (s *Service) RecordSwipe(ctx context.Context, actor, toID string, action db.SwipeAction) (*SwipeResult, error) {
	if actor == "" {
		return nil, svcErr.Unauthenticated("sign in required")
	}
	if toID == actor {
		return nil, svcErr.InvalidInput("cannot swipe on yourself")
	}
	if !action.Valid() {
		return nil, svcErr.InvalidInput("action must be like or pass")
	}

	target, err := s.appCtx.Store.GetProfile(ctx, toID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, svcErr.Precondition("profile %s does not exist", toID)
	}
	blocked, err := s.appCtx.Store.IsBlocked(ctx, actor, toID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, svcErr.Conflict("cannot swipe on this user")
	}

	now := s.appCtx.Now()
	swipe := &db.Swipe{ID: db.NewID(), FromID: actor, ToID: toID, Action: action, CreatedAt: now}
	if err := s.appCtx.Store.CreateSwipe(ctx, swipe); err != nil {
		return nil, err
	}
	InvalidateCounts(ctx, s.appCtx, actor, toID)

	s.appCtx.Logger.Debug("swipe recorded", "from", actor, "to", toID, "action", action)

	if action != db.SwipeLike {
		return &SwipeResult{}, nil
	}

	existing, err := s.appCtx.Store.GetMatchByPair(ctx, actor, toID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return resultFor(existing), nil
	}

	mutual := s.appCtx.Config.Match.AutoMatch
	if !mutual {
		back, err := s.appCtx.Store.LatestSwipe(ctx, toID, actor)
		if err != nil {
			return nil, err
		}
		mutual = back != nil && back.Action == db.SwipeLike
	}
	if !mutual {
		return &SwipeResult{}, nil
	}

	a, b := db.OrderedPair(actor, toID)
	m := &db.Match{ID: db.NewID(), UserAID: a, UserBID: b, State: db.MatchActive, CreatedAt: now, UpdatedAt: now}
	th := &db.CallThread{ID: db.NewID(), MatchID: m.ID, SchedulingState: db.SchedulingPending, LastActivityAt: now}
	created, err := s.appCtx.Store.CreateMatchWithThread(ctx, m, th)
	if errors.Is(err, svcErr.ErrConflict) && created != nil {
		// the other user's like won the race
		return resultFor(created), nil
	}
	if err != nil {
		return nil, err
	}

	s.appCtx.Logger.Info("match created", "match_id", created.ID, "user_a", a, "user_b", b)
	return &SwipeResult{IsMatch: true, MatchID: created.ID}, nil
}

func resultFor(m *db.Match) *SwipeResult {
	if m.State != db.MatchActive {
		return &SwipeResult{}
	}
	return &SwipeResult{IsMatch: true, MatchID: m.ID}
}

// ListMatches returns actor's active matches, newest first.
func (s *Service) ListMatches(ctx context.Context, actor string) ([]db.Match, error) {
	if actor == "" {
		return nil, svcErr.Unauthenticated("sign in required")
	}
	return s.appCtx.Store.ListMatches(ctx, actor, db.MatchActive)
}

// GetMatch returns the match, or nil when it does not exist. Only its
// participants may read it.
func (s *Service) GetMatch(ctx context.Context, actor, id string) (*db.Match, error) {
	if actor == "" {
		return nil, svcErr.Unauthenticated("sign in required")
	}
	m, err := s.appCtx.Store.GetMatch(ctx, id)
	if err != nil || m == nil {
		return nil, err
	}
	if !m.HasUser(actor) {
		return nil, svcErr.PermissionDenied("not a participant of this match")
	}
	return m, nil
}

// GetThreadForMatch returns the call thread of a match, or nil.
func (s *Service) GetThreadForMatch(ctx context.Context, actor, matchID string) (*db.CallThread, error) {
	m, err := s.GetMatch(ctx, actor, matchID)
	if err != nil || m == nil {
		return nil, err
	}
	return s.appCtx.Store.GetThreadByMatch(ctx, m.ID)
}

// ListLikedYou returns the users whose latest swipe on actor is a like.
//
// Behavior:
//   - Excludes users actor passed on and users with a block either way.
//   - Newest first, LikedYouPageSize per page, paginated with token.
func (s *Service) ListLikedYou(ctx context.Context, actor string, token *string) ([]db.Swipe, *string, error) {
	if actor == "" {
		return nil, nil, svcErr.Unauthenticated("sign in required")
	}
	swipes, next, err := s.appCtx.Store.ListLikers(ctx, actor, token, LikedYouPageSize)
	if err != nil {
		return nil, nil, err
	}
	s.appCtx.Logger.Debug("ListLikedYou result", "user_id", actor, "liker_count", len(swipes))
	return swipes, next, nil
}

// CountLikedYou returns how many users currently like actor.
// Cache-first strategy:
//  1. Attempts to read from Redis (likes:count:userID).
//  2. On a miss or a Redis failure, falls back to the store.
//  3. On store fetch, updates Redis with a 1h TTL unless a swipe
//     invalidated the count meanwhile.
func (s *Service) CountLikedYou(ctx context.Context, actor string) (int64, error) {
	if actor == "" {
		return 0, svcErr.Unauthenticated("sign in required")
	}

	count, version, ok, err := s.appCtx.RedisCache.GetLikeCount(ctx, actor)
	if err != nil {
		s.appCtx.Logger.Warn("like count cache read failed", "user_id", actor, "err", err)
	}
	if ok {
		return count, nil
	}

	count, err = s.appCtx.Store.CountLikers(ctx, actor)
	if err != nil {
		return 0, err
	}
	if stored, err := s.appCtx.RedisCache.SetLikeCount(ctx, actor, count, version); err != nil {
		s.appCtx.Logger.Warn("like count cache write failed", "user_id", actor, "err", err)
	} else if !stored {
		s.appCtx.Logger.Debug("like count changed while counting, not cached", "user_id", actor)
	}
	return count, nil
}

// InvalidateCounts drops cached liked-you counts after a swipe or block
// between users. A stale entry still expires with its TTL if this fails.
func InvalidateCounts(ctx context.Context, appCtx *app.AppContext, userIDs ...string) {
	if err := appCtx.RedisCache.InvalidateLikeCounts(ctx, userIDs...); err != nil {
		appCtx.Logger.Warn("like count cache invalidation failed", "users", userIDs, "err", err)
	}
}
