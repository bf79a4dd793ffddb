// Package storetest is the behavioural contract every repository.Store
// backend must satisfy. Backends call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/callfirst/internal/db"
	svcErr "github.com/oggyb/callfirst/internal/errors"
	"github.com/oggyb/callfirst/internal/repository"
)

// Opener returns a fresh, empty store for one subtest.
type Opener func(t *testing.T) repository.Store

var t0 = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

// Run executes the whole contract against stores produced by open.
func Run(t *testing.T, open Opener) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s repository.Store)
	}{
		{"ProfileLifecycle", testProfileLifecycle},
		{"Credentials", testCredentials},
		{"CandidatesExcludeSwipedAndBlocked", testCandidates},
		{"LatestSwipeWins", testLatestSwipe},
		{"LikersAndPagination", testLikers},
		{"MatchCreatedOncePerPair", testMatchOncePerPair},
		{"ConcurrentMatchCreation", testConcurrentMatchCreation},
		{"MatchStateCAS", testMatchStateCAS},
		{"ProposalFlow", testProposalFlow},
		{"StaleProposalRejected", testStaleProposal},
		{"ConcurrentConfirmation", testConcurrentConfirmation},
		{"RescheduleAfterCall", testRescheduleAfterCall},
		{"CallTransitions", testCallTransitions},
		{"BlockSideEffects", testBlockSideEffects},
		{"Feedback", testFeedback},
		{"Reports", testReports},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, open(t))
		})
	}
}

//
// Fixtures
//

func profile(id string, offset time.Duration) *db.UserProfile {
	return &db.UserProfile{
		ID:        id,
		Name:      id,
		Birthday:  time.Date(1998, time.June, 1, 0, 0, 0, 0, time.UTC),
		Gender:    db.GenderWoman,
		Sexuality: db.SexualityBisexual,
		ShowMe:    db.ShowMeEveryone,
		Photos:    []string{"https://img/" + id},
		Prompts:   []string{"hello"},
		CreatedAt: t0.Add(offset),
	}
}

func seedProfiles(t *testing.T, s repository.Store, ids ...string) {
	t.Helper()
	for i, id := range ids {
		require.NoError(t, s.CreateProfile(context.Background(), profile(id, time.Duration(i)*time.Minute)))
	}
}

func swipe(t *testing.T, s repository.Store, from, to string, action db.SwipeAction, at time.Time) {
	t.Helper()
	require.NoError(t, s.CreateSwipe(context.Background(), &db.Swipe{
		ID: db.NewID(), FromID: from, ToID: to, Action: action, CreatedAt: at,
	}))
}

func newMatch(t *testing.T, s repository.Store, a, b string) (*db.Match, *db.CallThread) {
	t.Helper()
	m := &db.Match{ID: db.NewID(), UserAID: a, UserBID: b, State: db.MatchActive, CreatedAt: t0}
	th := &db.CallThread{ID: db.NewID(), SchedulingState: db.SchedulingPending, LastActivityAt: t0}
	got, err := s.CreateMatchWithThread(context.Background(), m, th)
	require.NoError(t, err)
	return got, th
}

func propose(t *testing.T, s repository.Store, threadID, by string, at time.Time, slots ...time.Time) *db.CallProposal {
	t.Helper()
	p := &db.CallProposal{
		ID:         db.NewID(),
		ThreadID:   threadID,
		ProposedBy: by,
		CallType:   db.CallVideo,
		CreatedAt:  at,
	}
	for _, sl := range slots {
		p.Slots = append(p.Slots, db.FormatISO(sl))
	}
	require.NoError(t, s.AddProposal(context.Background(), p))
	return p
}

func eventFor(threadID string, start time.Time) *db.CallEvent {
	return &db.CallEvent{
		ID:              db.NewID(),
		ThreadID:        threadID,
		ScheduledStart:  start,
		DurationSeconds: 30,
		CallType:        db.CallVideo,
		State:           db.CallScheduled,
		ProviderJoinURL: "mock://video-room/test",
		CreatedAt:       t0,
	}
}

func ids(profiles []db.UserProfile) []string {
	out := make([]string, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p.ID)
	}
	return out
}

//
// Contract
//

func testProfileLifecycle(t *testing.T, s repository.Store) {
	ctx := context.Background()

	got, err := s.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, got, "absent profile reads as nil")

	require.NoError(t, s.CreateProfile(ctx, profile("alice", 0)))
	err = s.CreateProfile(ctx, profile("alice", 0))
	assert.True(t, errors.Is(err, svcErr.ErrConflict), "duplicate id: %v", err)

	got, err = s.GetProfile(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Name)
	assert.Equal(t, []string{"https://img/alice"}, []string(got.Photos))
	assert.Equal(t, 1998, got.Birthday.Year())

	got.Name = "Alice B"
	got.Photos = nil
	got.Bio = "hi"
	got.UpdatedAt = t0.Add(time.Hour)
	require.NoError(t, s.SaveProfile(ctx, got))

	again, err := s.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice B", again.Name)
	assert.Equal(t, "hi", again.Bio)
	assert.Empty(t, again.Photos)

	err = s.SaveProfile(ctx, profile("ghost", 0))
	assert.True(t, errors.Is(err, svcErr.ErrPrecondition), "save of missing profile: %v", err)
}

func testCredentials(t *testing.T, s repository.Store) {
	ctx := context.Background()

	c := &db.Credential{ID: db.NewID(), UserID: "u1", Kind: db.CredentialEmail, Identifier: "a@b.co", PasswordHash: "h", CreatedAt: t0}
	require.NoError(t, s.CreateCredential(ctx, c))

	dup := &db.Credential{ID: db.NewID(), UserID: "u2", Kind: db.CredentialEmail, Identifier: "a@b.co", CreatedAt: t0}
	assert.True(t, errors.Is(s.CreateCredential(ctx, dup), svcErr.ErrConflict))

	// same identifier under another kind is a different credential
	phone := &db.Credential{ID: db.NewID(), UserID: "u2", Kind: db.CredentialPhone, Identifier: "a@b.co", CreatedAt: t0}
	require.NoError(t, s.CreateCredential(ctx, phone))

	got, err := s.GetCredential(ctx, db.CredentialEmail, "a@b.co")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "h", got.PasswordHash)

	got, err = s.GetCredential(ctx, db.CredentialEmail, "nobody@b.co")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testCandidates(t *testing.T, s repository.Store) {
	ctx := context.Background()
	seedProfiles(t, s, "a", "b", "c", "d", "e")

	list, err := s.ListCandidates(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "d", "e"}, ids(list), "insertion order, self excluded")

	swipe(t, s, "a", "b", db.SwipeLike, t0)
	swipe(t, s, "a", "c", db.SwipePass, t0)
	require.NoError(t, s.CreateBlock(ctx, &db.Block{ID: db.NewID(), BlockerID: "e", BlockedID: "a", CreatedAt: t0}))

	list, err = s.ListCandidates(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"d"}, ids(list))

	// b's view is unaffected by a's swipes; e blocked a so a is hidden from e too
	list, err = s.ListCandidates(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "d", "e"}, ids(list))

	list, err = s.ListCandidates(ctx, "e")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "d"}, ids(list))
}

func testLatestSwipe(t *testing.T, s repository.Store) {
	ctx := context.Background()

	got, err := s.LatestSwipe(ctx, "a", "b")
	require.NoError(t, err)
	assert.Nil(t, got)

	swipe(t, s, "a", "b", db.SwipePass, t0)
	swipe(t, s, "a", "b", db.SwipeLike, t0.Add(time.Second))
	swipe(t, s, "b", "a", db.SwipePass, t0.Add(2*time.Second))

	got, err = s.LatestSwipe(ctx, "a", "b")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, db.SwipeLike, got.Action)

	// same timestamp: the later insert wins
	swipe(t, s, "a", "b", db.SwipePass, t0.Add(time.Second))
	got, err = s.LatestSwipe(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, db.SwipePass, got.Action)
}

func testLikers(t *testing.T, s repository.Store) {
	ctx := context.Background()

	// seven users like "me", one at a time
	likers := []string{"u1", "u2", "u3", "u4", "u5", "u6", "u7"}
	for i, id := range likers {
		swipe(t, s, id, "me", db.SwipeLike, t0.Add(time.Duration(i)*time.Second))
	}
	// u2 changed their mind
	swipe(t, s, "u2", "me", db.SwipePass, t0.Add(time.Minute))
	// me passed u3
	swipe(t, s, "me", "u3", db.SwipePass, t0.Add(time.Minute))
	// me liked u4 back (still counts as a liker)
	swipe(t, s, "me", "u4", db.SwipeLike, t0.Add(time.Minute))
	// u5 is blocked
	require.NoError(t, s.CreateBlock(ctx, &db.Block{ID: db.NewID(), BlockerID: "me", BlockedID: "u5", CreatedAt: t0}))

	count, err := s.CountLikers(ctx, "me")
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	page, next, err := s.ListLikers(ctx, "me", nil, 3)
	require.NoError(t, err)
	require.NotNil(t, next)
	require.Len(t, page, 3)
	assert.Equal(t, "u7", page[0].FromID, "newest first")
	assert.Equal(t, "u6", page[1].FromID)
	assert.Equal(t, "u4", page[2].FromID)

	page, next, err = s.ListLikers(ctx, "me", next, 3)
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, page, 1)
	assert.Equal(t, "u1", page[0].FromID)

	bad := "!!"
	_, _, err = s.ListLikers(ctx, "me", &bad, 3)
	assert.Error(t, err)
}

func testMatchOncePerPair(t *testing.T, s repository.Store) {
	ctx := context.Background()

	m, th := newMatch(t, s, "zed", "amy")
	assert.Equal(t, "amy", m.UserAID, "pair is stored in canonical order")
	assert.Equal(t, "zed", m.UserBID)
	assert.Equal(t, m.ID, th.MatchID)

	again := &db.Match{ID: db.NewID(), UserAID: "amy", UserBID: "zed", State: db.MatchActive, CreatedAt: t0}
	existing, err := s.CreateMatchWithThread(ctx, again, &db.CallThread{ID: db.NewID(), SchedulingState: db.SchedulingPending, LastActivityAt: t0})
	assert.True(t, errors.Is(err, svcErr.ErrConflict))
	require.NotNil(t, existing)
	assert.Equal(t, m.ID, existing.ID)

	got, err := s.GetMatchByPair(ctx, "zed", "amy")
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)

	thread, err := s.GetThreadByMatch(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, thread)
	assert.Equal(t, db.SchedulingPending, thread.SchedulingState)

	missing, err := s.GetMatch(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testConcurrentMatchCreation(t *testing.T, s repository.Store) {
	ctx := context.Background()
	const racers = 8

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		conflict int
		matchIDs = map[string]bool{}
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := "left", "right"
			if i%2 == 1 {
				a, b = b, a
			}
			m := &db.Match{ID: db.NewID(), UserAID: a, UserBID: b, State: db.MatchActive, CreatedAt: t0}
			got, err := s.CreateMatchWithThread(ctx, m, &db.CallThread{ID: db.NewID(), SchedulingState: db.SchedulingPending, LastActivityAt: t0})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, svcErr.ErrConflict):
				conflict++
			default:
				t.Errorf("unexpected error: %v", err)
			}
			if got != nil {
				matchIDs[got.ID] = true
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, racers-1, conflict)
	assert.Len(t, matchIDs, 1, "every racer sees the same match")

	list, err := s.ListMatches(ctx, "left", db.MatchActive)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func testMatchStateCAS(t *testing.T, s repository.Store) {
	ctx := context.Background()
	m, _ := newMatch(t, s, "a", "b")
	newMatch(t, s, "a", "c")

	ok, err := s.SetMatchState(ctx, m.ID, db.MatchActive, db.MatchArchived, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SetMatchState(ctx, m.ID, db.MatchActive, db.MatchArchived, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok, "second transition sees archived")

	active, err := s.ListMatches(ctx, "a", db.MatchActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "c", active[0].Other("a"))

	archived, err := s.ListMatches(ctx, "b", db.MatchArchived)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, m.ID, archived[0].ID)
}

func testProposalFlow(t *testing.T, s repository.Store) {
	ctx := context.Background()
	_, th := newMatch(t, s, "a", "b")

	latest, err := s.LatestProposal(ctx, th.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	slot1, slot2 := t0.Add(time.Hour), t0.Add(2*time.Hour)
	p := propose(t, s, th.ID, "a", t0.Add(time.Minute), slot1, slot2)

	thread, err := s.GetThread(ctx, th.ID)
	require.NoError(t, err)
	assert.Equal(t, db.SchedulingProposed, thread.SchedulingState)
	assert.True(t, thread.LastActivityAt.Equal(t0.Add(time.Minute)))

	latest, err = s.LatestProposal(ctx, th.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, latest.ID)
	assert.Equal(t, []string{db.FormatISO(slot1), db.FormatISO(slot2)}, []string(latest.Slots))

	e := eventFor(th.ID, slot2)
	require.NoError(t, s.ConfirmProposal(ctx, p.ID, e))

	thread, err = s.GetThread(ctx, th.ID)
	require.NoError(t, err)
	assert.Equal(t, db.SchedulingConfirmed, thread.SchedulingState)

	up, err := s.UpcomingCall(ctx, th.ID)
	require.NoError(t, err)
	require.NotNil(t, up)
	assert.Equal(t, e.ID, up.ID)
	assert.Equal(t, db.FormatISO(slot2), up.ScheduledStartISO())
	assert.Equal(t, db.CallScheduled, up.State)

	// a second proposal while the call is upcoming is refused
	err = s.AddProposal(ctx, &db.CallProposal{ID: db.NewID(), ThreadID: th.ID, ProposedBy: "b", CallType: db.CallAudio, Slots: []string{db.FormatISO(slot1)}, CreatedAt: t0.Add(2 * time.Minute)})
	assert.True(t, errors.Is(err, svcErr.ErrConflict), "%v", err)

	err = s.AddProposal(ctx, &db.CallProposal{ID: db.NewID(), ThreadID: "missing", ProposedBy: "b", CallType: db.CallAudio, Slots: []string{db.FormatISO(slot1)}, CreatedAt: t0})
	assert.True(t, errors.Is(err, svcErr.ErrPrecondition), "%v", err)
}

func testStaleProposal(t *testing.T, s repository.Store) {
	ctx := context.Background()
	_, th := newMatch(t, s, "a", "b")

	first := propose(t, s, th.ID, "a", t0.Add(time.Minute), t0.Add(time.Hour))
	second := propose(t, s, th.ID, "b", t0.Add(2*time.Minute), t0.Add(3*time.Hour))

	latest, err := s.LatestProposal(ctx, th.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	err = s.ConfirmProposal(ctx, first.ID, eventFor(th.ID, t0.Add(time.Hour)))
	assert.True(t, errors.Is(err, svcErr.ErrPrecondition), "%v", err)

	up, err := s.UpcomingCall(ctx, th.ID)
	require.NoError(t, err)
	assert.Nil(t, up, "nothing scheduled after a rejected confirm")
}

func testConcurrentConfirmation(t *testing.T, s repository.Store) {
	ctx := context.Background()
	_, th := newMatch(t, s, "a", "b")
	p := propose(t, s, th.ID, "a", t0.Add(time.Minute), t0.Add(time.Hour), t0.Add(2*time.Hour), t0.Add(3*time.Hour))

	const racers = 6
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.ConfirmProposal(ctx, p.ID, eventFor(th.ID, t0.Add(time.Duration(i%3+1)*time.Hour)))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				won++
			} else if !errors.Is(err, svcErr.ErrConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, won, "exactly one confirmation creates a call")
}

func testRescheduleAfterCall(t *testing.T, s repository.Store) {
	ctx := context.Background()
	_, th := newMatch(t, s, "a", "b")
	p := propose(t, s, th.ID, "a", t0.Add(time.Minute), t0.Add(time.Hour))
	e := eventFor(th.ID, t0.Add(time.Hour))
	require.NoError(t, s.ConfirmProposal(ctx, p.ID, e))

	ok, err := s.TransitionCallEvent(ctx, e.ID, []db.CallState{db.CallScheduled}, db.CallMissed, t0.Add(2*time.Hour))
	require.NoError(t, err)
	require.True(t, ok)

	again := propose(t, s, th.ID, "b", t0.Add(3*time.Hour), t0.Add(5*time.Hour))
	thread, err := s.GetThread(ctx, th.ID)
	require.NoError(t, err)
	assert.Equal(t, db.SchedulingProposed, thread.SchedulingState)

	require.NoError(t, s.ConfirmProposal(ctx, again.ID, eventFor(th.ID, t0.Add(5*time.Hour))))
}

func testCallTransitions(t *testing.T, s repository.Store) {
	ctx := context.Background()
	_, th := newMatch(t, s, "a", "b")
	p := propose(t, s, th.ID, "a", t0, t0.Add(time.Hour))
	e := eventFor(th.ID, t0.Add(time.Hour))
	require.NoError(t, s.ConfirmProposal(ctx, p.ID, e))

	overdue, err := s.ListOverdueCalls(ctx, t0.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, overdue)
	overdue, err = s.ListOverdueCalls(ctx, t0.Add(90*time.Minute))
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, e.ID, overdue[0].ID)

	live := t0.Add(time.Hour)
	ok, err := s.TransitionCallEvent(ctx, e.ID, []db.CallState{db.CallScheduled}, db.CallLive, live)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.TransitionCallEvent(ctx, e.ID, []db.CallState{db.CallScheduled}, db.CallLive, live)
	require.NoError(t, err)
	assert.False(t, ok, "already live")

	ok, err = s.TransitionCallEvent(ctx, e.ID, []db.CallState{db.CallLive}, db.CallCompleted, live.Add(30*time.Second))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.TransitionCallEvent(ctx, e.ID, []db.CallState{db.CallLive}, db.CallCompleted, live.Add(31*time.Second))
	require.NoError(t, err)
	assert.False(t, ok, "completion happens once")

	got, err := s.GetCallEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, db.CallCompleted, got.State)
	require.NotNil(t, got.StartedAt)
	require.NotNil(t, got.EndedAt)
	assert.True(t, got.StartedAt.Equal(live))
	assert.True(t, got.EndedAt.Equal(live.Add(30*time.Second)))

	up, err := s.UpcomingCall(ctx, th.ID)
	require.NoError(t, err)
	assert.Nil(t, up)

	ok, err = s.TransitionCallEvent(ctx, "missing", []db.CallState{db.CallScheduled}, db.CallLive, live)
	require.NoError(t, err)
	assert.False(t, ok)
}

func testBlockSideEffects(t *testing.T, s repository.Store) {
	ctx := context.Background()
	m, th := newMatch(t, s, "a", "b")
	other, _ := newMatch(t, s, "a", "c")
	p := propose(t, s, th.ID, "a", t0, t0.Add(time.Hour))
	e := eventFor(th.ID, t0.Add(time.Hour))
	require.NoError(t, s.ConfirmProposal(ctx, p.ID, e))

	block := &db.Block{ID: db.NewID(), BlockerID: "b", BlockedID: "a", CreatedAt: t0.Add(time.Minute)}
	require.NoError(t, s.CreateBlock(ctx, block))
	require.NoError(t, s.CreateBlock(ctx, &db.Block{ID: db.NewID(), BlockerID: "b", BlockedID: "a", CreatedAt: t0.Add(2 * time.Minute)}), "repeat block is a no-op")

	for _, pair := range [][2]string{{"a", "b"}, {"b", "a"}} {
		blocked, err := s.IsBlocked(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.True(t, blocked)
	}
	blocked, err := s.IsBlocked(ctx, "a", "c")
	require.NoError(t, err)
	assert.False(t, blocked)

	got, err := s.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, db.MatchBlocked, got.State)

	untouched, err := s.GetMatch(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, db.MatchActive, untouched.State)

	ev, err := s.GetCallEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, db.CallCanceled, ev.State)

	active, err := s.ListMatches(ctx, "a", db.MatchActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, other.ID, active[0].ID)

	// scheduling against a blocked match is refused
	err = s.AddProposal(ctx, &db.CallProposal{ID: db.NewID(), ThreadID: th.ID, ProposedBy: "a", CallType: db.CallAudio, Slots: []string{db.FormatISO(t0.Add(time.Hour))}, CreatedAt: t0.Add(3 * time.Minute)})
	assert.True(t, errors.Is(err, svcErr.ErrConflict), "%v", err)
}

func testFeedback(t *testing.T, s repository.Store) {
	ctx := context.Background()

	f := &db.Feedback{ID: db.NewID(), CallEventID: "ev1", UserID: "a", Rating: db.RatingInterested, CreatedAt: t0}
	require.NoError(t, s.CreateFeedback(ctx, f))

	dup := &db.Feedback{ID: db.NewID(), CallEventID: "ev1", UserID: "a", Rating: db.RatingNotInterested, CreatedAt: t0}
	assert.True(t, errors.Is(s.CreateFeedback(ctx, dup), svcErr.ErrConflict))

	require.NoError(t, s.CreateFeedback(ctx, &db.Feedback{ID: db.NewID(), CallEventID: "ev1", UserID: "b", Rating: db.RatingNotInterested, CreatedAt: t0.Add(time.Second)}))

	list, err := s.ListFeedback(ctx, "ev1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].UserID)
	assert.Equal(t, db.RatingInterested, list[0].Rating)
	assert.Equal(t, "b", list[1].UserID)
}

func testReports(t *testing.T, s repository.Store) {
	ctx := context.Background()
	r := &db.Report{ID: db.NewID(), ReporterID: "a", ReportedID: "b", Category: db.ReportSpam, Notes: "bot", CreatedAt: t0}
	require.NoError(t, s.CreateReport(ctx, r))

	// reporting does not block
	blocked, err := s.IsBlocked(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, blocked)
}
