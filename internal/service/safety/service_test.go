package safety_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/callfirst/internal/app/apptest"
	"github.com/oggyb/callfirst/internal/config"
	"github.com/oggyb/callfirst/internal/db"
	svcErr "github.com/oggyb/callfirst/internal/errors"
	"github.com/oggyb/callfirst/internal/service/call"
	"github.com/oggyb/callfirst/internal/service/matching"
	"github.com/oggyb/callfirst/internal/service/profile"
	"github.com/oggyb/callfirst/internal/service/safety"
	"github.com/oggyb/callfirst/internal/service/scheduling"
)

type fixture struct {
	env   *apptest.Env
	svc   *safety.Service
	match *db.Match
	event *db.CallEvent
}

// setup matches alex and blair and schedules their call one hour after the
// test epoch. casey is a third user outside the match.
func setup(t *testing.T, opts ...func(*config.Config)) *fixture {
	t.Helper()
	env := apptest.New(t, opts...)
	for _, id := range []string{"alex", "blair", "casey"} {
		env.Profile(t, id)
	}
	m, th := env.Match(t, "alex", "blair")

	ctx := context.Background()
	start := db.FormatISO(apptest.Epoch.Add(time.Hour))
	sched := scheduling.NewSchedulingService(env.App)
	_, err := sched.CreateProposal(ctx, "alex", th.ID, db.CallAudio, []string{start})
	require.NoError(t, err)
	e, err := sched.ConfirmSlot(ctx, "blair", th.ID, start)
	require.NoError(t, err)

	return &fixture{env: env, svc: safety.NewSafetyService(env.App), match: m, event: e}
}

// completeCall runs the scheduled call from join to end.
func (f *fixture) completeCall(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	ctrl := call.NewController(f.env.App)
	t.Cleanup(ctrl.Close)

	f.env.Clock.Advance(time.Hour)
	_, err := ctrl.JoinCall(ctx, "alex", f.event.ID)
	require.NoError(t, err)
	_, prompt, err := ctrl.EndCall(ctx, "alex", f.event.ID)
	require.NoError(t, err)
	require.NotNil(t, prompt)
}

func TestBlockUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	store := f.env.App.Store

	require.NoError(t, f.svc.BlockUser(ctx, "alex", "blair"))
	require.NoError(t, f.svc.BlockUser(ctx, "alex", "blair"), "blocking twice is a no-op")

	m, err := store.GetMatch(ctx, f.match.ID)
	require.NoError(t, err)
	assert.Equal(t, db.MatchBlocked, m.State)

	e, err := store.GetCallEvent(ctx, f.event.ID)
	require.NoError(t, err)
	assert.Equal(t, db.CallCanceled, e.State)

	matches, err := matching.NewMatchingService(f.env.App).ListMatches(ctx, "blair")
	require.NoError(t, err)
	assert.Empty(t, matches)

	profiles := profile.NewProfileService(f.env.App)
	for _, pair := range [][2]string{{"alex", "blair"}, {"blair", "alex"}} {
		candidates, err := profiles.ListCandidates(ctx, pair[0])
		require.NoError(t, err)
		for _, c := range candidates {
			assert.NotEqual(t, pair[1], c.ID)
		}
	}

	_, err = matching.NewMatchingService(f.env.App).RecordSwipe(ctx, "blair", "alex", db.SwipeLike)
	assert.ErrorIs(t, err, svcErr.ErrConflict)
}

func TestBlockUserValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.BlockUser(ctx, "alex", "alex"), svcErr.ErrInvalidInput)
	assert.ErrorIs(t, f.svc.BlockUser(ctx, "alex", ""), svcErr.ErrInvalidInput)
	assert.ErrorIs(t, f.svc.BlockUser(ctx, "", "blair"), svcErr.ErrUnauthenticated)
}

func TestReportUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.svc.ReportUser(ctx, "casey", "alex", db.ReportSpam, "  sends links  "))

	// reporting does not block
	blocked, err := f.env.App.Store.IsBlocked(ctx, "casey", "alex")
	require.NoError(t, err)
	assert.False(t, blocked)

	tests := []struct {
		name     string
		reported string
		category db.ReportCategory
		notes    string
		want     error
	}{
		{"unknown category", "alex", "rude", "", svcErr.ErrInvalidInput},
		{"notes too long", "alex", db.ReportOther, strings.Repeat("x", safety.MaxNotesLen+1), svcErr.ErrInvalidInput},
		{"self", "casey", db.ReportFake, "", svcErr.ErrInvalidInput},
		{"unknown user", "nobody", db.ReportFake, "", svcErr.ErrPrecondition},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := f.svc.ReportUser(ctx, "casey", tc.reported, tc.category, tc.notes)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	require.NoError(t, f.svc.ReportUser(ctx, "casey", "blair", db.ReportOther, strings.Repeat("x", safety.MaxNotesLen)))
}

func TestSubmitFeedback(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	err := f.svc.SubmitFeedback(ctx, "alex", f.event.ID, db.RatingInterested)
	assert.ErrorIs(t, err, svcErr.ErrPrecondition, "call not completed yet")

	f.completeCall(t)

	require.NoError(t, f.svc.SubmitFeedback(ctx, "alex", f.event.ID, db.RatingInterested))
	err = f.svc.SubmitFeedback(ctx, "alex", f.event.ID, db.RatingNotInterested)
	assert.ErrorIs(t, err, svcErr.ErrConflict)

	err = f.svc.SubmitFeedback(ctx, "casey", f.event.ID, db.RatingInterested)
	assert.ErrorIs(t, err, svcErr.ErrPermissionDenied)
	err = f.svc.SubmitFeedback(ctx, "blair", f.event.ID, "maybe")
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput)
	err = f.svc.SubmitFeedback(ctx, "blair", "missing", db.RatingInterested)
	assert.ErrorIs(t, err, svcErr.ErrPrecondition)

	require.NoError(t, f.svc.SubmitFeedback(ctx, "blair", f.event.ID, db.RatingNotInterested))

	all, err := f.env.App.Store.ListFeedback(ctx, f.event.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMutualPassKeepsMatchByDefault(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.completeCall(t)

	require.NoError(t, f.svc.SubmitFeedback(ctx, "alex", f.event.ID, db.RatingNotInterested))
	require.NoError(t, f.svc.SubmitFeedback(ctx, "blair", f.event.ID, db.RatingNotInterested))

	m, err := f.env.App.Store.GetMatch(ctx, f.match.ID)
	require.NoError(t, err)
	assert.Equal(t, db.MatchActive, m.State)
}

func TestMutualPassArchivesMatch(t *testing.T) {
	f := setup(t, func(c *config.Config) { c.Feedback.ArchiveOnMutualPass = true })
	ctx := context.Background()
	f.completeCall(t)

	require.NoError(t, f.svc.SubmitFeedback(ctx, "alex", f.event.ID, db.RatingNotInterested))
	m, err := f.env.App.Store.GetMatch(ctx, f.match.ID)
	require.NoError(t, err)
	assert.Equal(t, db.MatchActive, m.State, "one pass is not enough")

	require.NoError(t, f.svc.SubmitFeedback(ctx, "blair", f.event.ID, db.RatingNotInterested))
	m, err = f.env.App.Store.GetMatch(ctx, f.match.ID)
	require.NoError(t, err)
	assert.Equal(t, db.MatchArchived, m.State)
}
