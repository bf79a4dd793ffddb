package scheduling_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/callfirst/internal/app/apptest"
	"github.com/oggyb/callfirst/internal/db"
	svcErr "github.com/oggyb/callfirst/internal/errors"
	"github.com/oggyb/callfirst/internal/service/scheduling"
)

// setupService returns the service and the thread of an active alex/blair
// match. casey is a third user outside the match.
func setupService(t *testing.T) (*scheduling.Service, *apptest.Env, *db.CallThread) {
	t.Helper()
	env := apptest.New(t)
	for _, id := range []string{"alex", "blair", "casey"} {
		env.Profile(t, id)
	}
	_, th := env.Match(t, "alex", "blair")
	return scheduling.NewSchedulingService(env.App), env, th
}

// slot returns the ISO slot h hours after the test epoch.
func slot(h int) string {
	return db.FormatISO(apptest.Epoch.Add(time.Duration(h) * time.Hour))
}

func TestProposeAndConfirm(t *testing.T) {
	svc, _, th := setupService(t)
	ctx := context.Background()

	p, err := svc.CreateProposal(ctx, "alex", th.ID, db.CallVideo, []string{slot(24), slot(48)})
	require.NoError(t, err)
	assert.Equal(t, "alex", p.ProposedBy)

	got, err := svc.GetThread(ctx, "blair", th.ID)
	require.NoError(t, err)
	assert.Equal(t, db.SchedulingProposed, got.SchedulingState)

	latest, err := svc.GetLatestProposal(ctx, "blair", th.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, latest.ID)

	// a slot in another ISO spelling still matches
	start := apptest.Epoch.Add(48 * time.Hour).Format(time.RFC3339)
	e, err := svc.ConfirmSlot(ctx, "blair", th.ID, start)
	require.NoError(t, err)
	assert.Equal(t, db.CallScheduled, e.State)
	assert.Equal(t, slot(48), e.ScheduledStartISO())
	assert.Equal(t, 30, e.DurationSeconds)
	assert.Equal(t, db.CallVideo, e.CallType)
	assert.Equal(t, "mock://video-room/"+e.ID, e.ProviderJoinURL)

	got, err = svc.GetThread(ctx, "alex", th.ID)
	require.NoError(t, err)
	assert.Equal(t, db.SchedulingConfirmed, got.SchedulingState)

	upcoming, err := svc.GetUpcomingCall(ctx, "alex", th.ID)
	require.NoError(t, err)
	require.NotNil(t, upcoming)
	assert.Equal(t, e.ID, upcoming.ID)
}

func TestCreateProposalValidation(t *testing.T) {
	svc, env, th := setupService(t)
	ctx := context.Background()

	_, err := svc.CreateProposal(ctx, "alex", th.ID, db.CallVideo, nil)
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput, "no slots")

	_, err = svc.CreateProposal(ctx, "alex", th.ID, db.CallVideo, []string{slot(1), slot(2), slot(3), slot(4)})
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput, "four slots")

	_, err = svc.CreateProposal(ctx, "alex", th.ID, db.CallVideo, []string{slot(-1)})
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput, "past slot")

	_, err = svc.CreateProposal(ctx, "alex", th.ID, db.CallVideo, []string{slot(2), slot(2)})
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput, "duplicate slot")

	_, err = svc.CreateProposal(ctx, "alex", th.ID, db.CallVideo, []string{"tomorrow at six"})
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput)

	_, err = svc.CreateProposal(ctx, "alex", th.ID, "carrier pigeon", []string{slot(2)})
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput)

	_, err = svc.CreateProposal(ctx, "casey", th.ID, db.CallAudio, []string{slot(2)})
	assert.ErrorIs(t, err, svcErr.ErrPermissionDenied)

	_, err = svc.CreateProposal(ctx, "alex", "no-such-thread", db.CallAudio, []string{slot(2)})
	assert.ErrorIs(t, err, svcErr.ErrPrecondition)

	_, err = svc.CreateProposal(ctx, "alex", th.ID, db.CallAudio, []string{db.FormatISO(env.App.Now())})
	assert.NoError(t, err, "now is not in the past")
}

func TestConfirmSlotPreconditions(t *testing.T) {
	svc, _, th := setupService(t)
	ctx := context.Background()

	_, err := svc.ConfirmSlot(ctx, "blair", th.ID, slot(24))
	assert.ErrorIs(t, err, svcErr.ErrPrecondition, "no proposal yet")

	_, err = svc.CreateProposal(ctx, "alex", th.ID, db.CallAudio, []string{slot(24)})
	require.NoError(t, err)

	_, err = svc.ConfirmSlot(ctx, "alex", th.ID, slot(24))
	assert.ErrorIs(t, err, svcErr.ErrPermissionDenied, "proposer cannot confirm")

	_, err = svc.ConfirmSlot(ctx, "blair", th.ID, slot(25))
	assert.ErrorIs(t, err, svcErr.ErrPrecondition, "slot not offered")

	_, err = svc.ConfirmSlot(ctx, "casey", th.ID, slot(24))
	assert.ErrorIs(t, err, svcErr.ErrPermissionDenied)

	_, err = svc.ConfirmSlot(ctx, "blair", th.ID, "soon")
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput)
}

// TestCounterProposalMakesOldSlotsStale checks that only the latest proposal
// can be confirmed, and by the other participant.
func TestCounterProposalMakesOldSlotsStale(t *testing.T) {
	svc, env, th := setupService(t)
	ctx := context.Background()

	_, err := svc.CreateProposal(ctx, "alex", th.ID, db.CallAudio, []string{slot(24)})
	require.NoError(t, err)
	env.Clock.Advance(time.Minute)
	_, err = svc.CreateProposal(ctx, "blair", th.ID, db.CallVideo, []string{slot(30)})
	require.NoError(t, err)

	_, err = svc.ConfirmSlot(ctx, "alex", th.ID, slot(24))
	assert.ErrorIs(t, err, svcErr.ErrPrecondition, "stale slot")

	e, err := svc.ConfirmSlot(ctx, "alex", th.ID, slot(30))
	require.NoError(t, err)
	assert.Equal(t, db.CallVideo, e.CallType)
}

func TestConfirmSlotAfterItPassed(t *testing.T) {
	svc, env, th := setupService(t)
	ctx := context.Background()

	_, err := svc.CreateProposal(ctx, "alex", th.ID, db.CallAudio, []string{slot(1)})
	require.NoError(t, err)
	env.Clock.Advance(2 * time.Hour)

	_, err = svc.ConfirmSlot(ctx, "blair", th.ID, slot(1))
	assert.ErrorIs(t, err, svcErr.ErrPrecondition)
}

// TestRescheduleAfterCallIsOver covers the confirmed → proposed round trip.
func TestRescheduleAfterCallIsOver(t *testing.T) {
	svc, env, th := setupService(t)
	ctx := context.Background()

	_, err := svc.CreateProposal(ctx, "alex", th.ID, db.CallAudio, []string{slot(24)})
	require.NoError(t, err)
	e, err := svc.ConfirmSlot(ctx, "blair", th.ID, slot(24))
	require.NoError(t, err)

	_, err = svc.CreateProposal(ctx, "blair", th.ID, db.CallAudio, []string{slot(48)})
	assert.ErrorIs(t, err, svcErr.ErrConflict, "a call is still upcoming")

	ok, err := env.App.Store.TransitionCallEvent(ctx, e.ID, []db.CallState{db.CallScheduled}, db.CallCanceled, env.App.Now())
	require.NoError(t, err)
	require.True(t, ok)

	_, err = svc.CreateProposal(ctx, "blair", th.ID, db.CallAudio, []string{slot(48)})
	require.NoError(t, err)
	got, err := svc.GetThread(ctx, "alex", th.ID)
	require.NoError(t, err)
	assert.Equal(t, db.SchedulingProposed, got.SchedulingState)

	upcoming, err := svc.GetUpcomingCall(ctx, "alex", th.ID)
	require.NoError(t, err)
	assert.Nil(t, upcoming)
}

func TestBlockedMatchCannotSchedule(t *testing.T) {
	svc, env, th := setupService(t)
	ctx := context.Background()

	require.NoError(t, env.App.Store.CreateBlock(ctx, &db.Block{
		ID: db.NewID(), BlockerID: "alex", BlockedID: "blair", CreatedAt: env.App.Now(),
	}))
	_, err := svc.CreateProposal(ctx, "blair", th.ID, db.CallAudio, []string{slot(24)})
	assert.ErrorIs(t, err, svcErr.ErrConflict)
}

// TestConcurrentConfirmations races two confirmations of the same proposal;
// exactly one call must be scheduled.
func TestConcurrentConfirmations(t *testing.T) {
	svc, env, th := setupService(t)
	ctx := context.Background()

	_, err := svc.CreateProposal(ctx, "alex", th.ID, db.CallAudio, []string{slot(24), slot(25)})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, s := range []string{slot(24), slot(25)} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.ConfirmSlot(ctx, "blair", th.ID, s)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, svcErr.ErrConflict)
	}
	assert.Equal(t, 1, succeeded)

	upcoming, err := env.App.Store.UpcomingCall(ctx, th.ID)
	require.NoError(t, err)
	require.NotNil(t, upcoming)
}

func TestReadsOfMissingThreads(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()

	th, err := svc.GetThread(ctx, "alex", "missing")
	require.NoError(t, err)
	assert.Nil(t, th)

	p, err := svc.GetLatestProposal(ctx, "alex", "missing")
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = svc.GetThread(ctx, "", "missing")
	assert.ErrorIs(t, err, svcErr.ErrUnauthenticated)
}
