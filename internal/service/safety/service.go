package safety

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/oggyb/callfirst/internal/app"
	"github.com/oggyb/callfirst/internal/db"
	svcErr "github.com/oggyb/callfirst/internal/errors"
	"github.com/oggyb/callfirst/internal/service/matching"
)

const MaxNotesLen = 1000

// Service handles blocks, reports and post-call feedback.
type Service struct {
	appCtx *app.AppContext
}

func NewSafetyService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx}
}

// BlockUser blocks blocked on behalf of actor.
//
// Behavior:
//   - Blocking yourself is InvalidInput; blocking twice is a no-op.
//   - Every match of the pair becomes blocked and its scheduled calls are
//     canceled in the same write, so neither user sees the other as a
//     candidate or match afterwards.
//   - Liked-you counts of both users are invalidated.
func (s *Service) BlockUser(ctx context.Context, actor, blocked string) error {
	if actor == "" {
		return svcErr.Unauthenticated("sign in required")
	}
	if blocked == "" {
		return svcErr.InvalidInput("user id is required")
	}
	if blocked == actor {
		return svcErr.InvalidInput("cannot block yourself")
	}

	b := &db.Block{
		ID:        db.NewID(),
		BlockerID: actor,
		BlockedID: blocked,
		CreatedAt: s.appCtx.Now(),
	}
	if err := s.appCtx.Store.CreateBlock(ctx, b); err != nil {
		return err
	}
	matching.InvalidateCounts(ctx, s.appCtx, actor, blocked)

	s.appCtx.Logger.Info("user blocked", "blocker_id", actor, "blocked_id", blocked)
	return nil
}

// ReportUser files a report against reported. Reporting does not block.
func (s *Service) ReportUser(ctx context.Context, actor, reported string, category db.ReportCategory, notes string) error {
	if actor == "" {
		return svcErr.Unauthenticated("sign in required")
	}
	if reported == actor {
		return svcErr.InvalidInput("cannot report yourself")
	}
	if !category.Valid() {
		return svcErr.InvalidInput("unknown report category %q", category)
	}
	notes = strings.TrimSpace(notes)
	if utf8.RuneCountInString(notes) > MaxNotesLen {
		return svcErr.InvalidInput("notes must be at most %d characters", MaxNotesLen)
	}

	p, err := s.appCtx.Store.GetProfile(ctx, reported)
	if err != nil {
		return err
	}
	if p == nil {
		return svcErr.Precondition("profile %s does not exist", reported)
	}

	r := &db.Report{
		ID:         db.NewID(),
		ReporterID: actor,
		ReportedID: reported,
		Category:   category,
		Notes:      notes,
		CreatedAt:  s.appCtx.Now(),
	}
	if err := s.appCtx.Store.CreateReport(ctx, r); err != nil {
		return err
	}
	s.appCtx.Logger.Info("user reported", "report_id", r.ID, "category", category)
	return nil
}

// SubmitFeedback records actor's rating of a completed call.
//
// Behavior:
//   - The event must exist and be completed (Precondition), actor must have
//     been in it (PermissionDenied) and may rate it once (Conflict).
//   - With Feedback.ArchiveOnMutualPass set, the second not_interested
//     rating archives the match.
func (s *Service) SubmitFeedback(ctx context.Context, actor, callEventID string, rating db.FeedbackRating) error {
	if actor == "" {
		return svcErr.Unauthenticated("sign in required")
	}
	if !rating.Valid() {
		return svcErr.InvalidInput("unknown rating %q", rating)
	}

	e, err := s.appCtx.Store.GetCallEvent(ctx, callEventID)
	if err != nil {
		return err
	}
	if e == nil {
		return svcErr.Precondition("call %s does not exist", callEventID)
	}
	m, err := s.matchOf(ctx, e)
	if err != nil {
		return err
	}
	if !m.HasUser(actor) {
		return svcErr.PermissionDenied("not a participant of this call")
	}
	if e.State != db.CallCompleted {
		return svcErr.Precondition("call is %s, feedback opens once it is completed", e.State)
	}

	f := &db.Feedback{
		ID:          db.NewID(),
		CallEventID: e.ID,
		UserID:      actor,
		Rating:      rating,
		CreatedAt:   s.appCtx.Now(),
	}
	if err := s.appCtx.Store.CreateFeedback(ctx, f); err != nil {
		return err
	}

	if rating != db.RatingNotInterested || !s.appCtx.Config.Feedback.ArchiveOnMutualPass {
		return nil
	}
	return s.archiveOnMutualPass(ctx, e.ID, m)
}

func (s *Service) archiveOnMutualPass(ctx context.Context, callEventID string, m *db.Match) error {
	all, err := s.appCtx.Store.ListFeedback(ctx, callEventID)
	if err != nil {
		return err
	}
	passes := 0
	for _, f := range all {
		if f.Rating == db.RatingNotInterested {
			passes++
		}
	}
	if passes < 2 {
		return nil
	}

	ok, err := s.appCtx.Store.SetMatchState(ctx, m.ID, db.MatchActive, db.MatchArchived, s.appCtx.Now())
	if err != nil {
		return err
	}
	if ok {
		s.appCtx.Logger.Info("match archived after mutual pass", "match_id", m.ID)
	}
	return nil
}

func (s *Service) matchOf(ctx context.Context, e *db.CallEvent) (*db.Match, error) {
	th, err := s.appCtx.Store.GetThread(ctx, e.ThreadID)
	if err != nil {
		return nil, err
	}
	if th == nil {
		return nil, svcErr.Precondition("call thread %s does not exist", e.ThreadID)
	}
	m, err := s.appCtx.Store.GetMatch(ctx, th.MatchID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, svcErr.Precondition("match %s does not exist", th.MatchID)
	}
	return m, nil
}
