package scheduling

import (
	"context"
	"time"

	"github.com/oggyb/callfirst/internal/app"
	"github.com/oggyb/callfirst/internal/db"
	svcErr "github.com/oggyb/callfirst/internal/errors"
)

// MaxSlots is the most start times one proposal may offer.
const MaxSlots = 3

// Service drives a call thread through pending → proposed → confirmed.
type Service struct {
	appCtx *app.AppContext
}

func NewSchedulingService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx}
}

// CreateProposal offers 1 to 3 start times for a call of callType.
//
// Behavior:
//   - actor must be a participant of the thread's match, and the match must
//     be active (Conflict once archived or blocked).
//   - Slots are normalised to UTC millisecond ISO strings; they must be
//     distinct and not in the past.
//   - Either participant may propose again while nothing is confirmed; the
//     newest proposal is the one that can be confirmed.
//   - A confirmed thread accepts a proposal only after its call is over.
//
// Example:
//
//	svc.CreateProposal(ctx, "alex", threadID, db.CallVideo, []string{"2025-06-02T18:00:00.000Z"})
func (s *Service) CreateProposal(ctx context.Context, actor, threadID string, callType db.CallType, slots []string) (*db.CallProposal, error) {
	if actor == "" {
		return nil, svcErr.Unauthenticated("sign in required")
	}
	if !callType.Valid() {
		return nil, svcErr.InvalidInput("call type must be audio or video")
	}
	now := s.appCtx.Now()
	normalized, err := normalizeSlots(slots, now)
	if err != nil {
		return nil, err
	}

	th, err := s.participantThread(ctx, actor, threadID)
	if err != nil {
		return nil, err
	}
	if th == nil {
		return nil, svcErr.Precondition("call thread %s does not exist", threadID)
	}

	p := &db.CallProposal{
		ID:         db.NewID(),
		ThreadID:   th.ID,
		ProposedBy: actor,
		CallType:   callType,
		Slots:      normalized,
		CreatedAt:  now,
	}
	if err := s.appCtx.Store.AddProposal(ctx, p); err != nil {
		return nil, err
	}

	s.appCtx.Logger.Info("call proposed", "thread_id", th.ID, "proposal_id", p.ID, "by", actor, "slots", len(p.Slots))
	return p, nil
}

// GetLatestProposal returns the thread's newest proposal, or nil.
func (s *Service) GetLatestProposal(ctx context.Context, actor, threadID string) (*db.CallProposal, error) {
	th, err := s.participantThread(ctx, actor, threadID)
	if err != nil || th == nil {
		return nil, err
	}
	return s.appCtx.Store.LatestProposal(ctx, th.ID)
}

// ConfirmSlot schedules the call at slot, which must belong to the latest
// proposal.
//
// Behavior:
//   - Precondition when there is no proposal, the slot is not in the latest
//     one (stale) or has already passed.
//   - Only the participant who did not make the latest proposal can confirm.
//   - Creates a scheduled CallEvent with the configured duration and a video
//     room, and moves the thread to confirmed, atomically in the store.
//   - Conflict when a concurrent confirmation won or a call is upcoming.
func (s *Service) ConfirmSlot(ctx context.Context, actor, threadID, slot string) (*db.CallEvent, error) {
	if actor == "" {
		return nil, svcErr.Unauthenticated("sign in required")
	}
	start, err := db.ParseISO(slot)
	if err != nil {
		return nil, svcErr.InvalidInput("slot must be an ISO-8601 timestamp")
	}

	th, err := s.participantThread(ctx, actor, threadID)
	if err != nil {
		return nil, err
	}
	if th == nil {
		return nil, svcErr.Precondition("call thread %s does not exist", threadID)
	}

	latest, err := s.appCtx.Store.LatestProposal(ctx, th.ID)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, svcErr.Precondition("there is no proposal to confirm")
	}
	if latest.ProposedBy == actor {
		return nil, svcErr.PermissionDenied("the other participant has to confirm this proposal")
	}
	if !latest.HasSlot(db.FormatISO(start)) {
		return nil, svcErr.Precondition("slot is not part of the latest proposal")
	}
	now := s.appCtx.Now()
	if start.Before(now) {
		return nil, svcErr.Precondition("slot has already passed")
	}

	e := &db.CallEvent{
		ID:              db.NewID(),
		ThreadID:        th.ID,
		ScheduledStart:  start,
		DurationSeconds: s.appCtx.Config.Call.DurationSeconds,
		CallType:        latest.CallType,
		State:           db.CallScheduled,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if e.ProviderJoinURL, err = s.appCtx.Rooms.CreateRoom(ctx, e.ID); err != nil {
		return nil, err
	}
	if err := s.appCtx.Store.ConfirmProposal(ctx, latest.ID, e); err != nil {
		return nil, err
	}

	s.appCtx.Logger.Info("call confirmed", "thread_id", th.ID, "call_event_id", e.ID, "start", e.ScheduledStartISO())
	return e, nil
}

// GetUpcomingCall returns the thread's scheduled or live call, or nil.
func (s *Service) GetUpcomingCall(ctx context.Context, actor, threadID string) (*db.CallEvent, error) {
	th, err := s.participantThread(ctx, actor, threadID)
	if err != nil || th == nil {
		return nil, err
	}
	return s.appCtx.Store.UpcomingCall(ctx, th.ID)
}

// GetThread returns the thread, or nil.
func (s *Service) GetThread(ctx context.Context, actor, threadID string) (*db.CallThread, error) {
	return s.participantThread(ctx, actor, threadID)
}

// participantThread loads a thread and checks that actor takes part in its
// match. It returns nil, nil when the thread does not exist.
func (s *Service) participantThread(ctx context.Context, actor, threadID string) (*db.CallThread, error) {
	if actor == "" {
		return nil, svcErr.Unauthenticated("sign in required")
	}
	th, err := s.appCtx.Store.GetThread(ctx, threadID)
	if err != nil || th == nil {
		return nil, err
	}
	m, err := s.appCtx.Store.GetMatch(ctx, th.MatchID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, svcErr.Precondition("match %s does not exist", th.MatchID)
	}
	if !m.HasUser(actor) {
		return nil, svcErr.PermissionDenied("not a participant of this match")
	}
	return th, nil
}

func normalizeSlots(slots []string, now time.Time) ([]string, error) {
	if len(slots) == 0 || len(slots) > MaxSlots {
		return nil, svcErr.InvalidInput("propose between 1 and %d slots", MaxSlots)
	}
	out := make([]string, 0, len(slots))
	seen := make(map[string]bool, len(slots))
	for _, raw := range slots {
		t, err := db.ParseISO(raw)
		if err != nil {
			return nil, svcErr.InvalidInput("slot %q is not an ISO-8601 timestamp", raw)
		}
		if t.Before(now) {
			return nil, svcErr.InvalidInput("slot %s is in the past", db.FormatISO(t))
		}
		iso := db.FormatISO(t)
		if seen[iso] {
			return nil, svcErr.InvalidInput("slot %s is listed twice", iso)
		}
		seen[iso] = true
		out = append(out, iso)
	}
	return out, nil
}
