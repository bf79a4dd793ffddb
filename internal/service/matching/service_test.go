package matching_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/callfirst/internal/app/apptest"
	"github.com/oggyb/callfirst/internal/cache"
	"github.com/oggyb/callfirst/internal/config"
	"github.com/oggyb/callfirst/internal/db"
	svcErr "github.com/oggyb/callfirst/internal/errors"
	"github.com/oggyb/callfirst/internal/service/matching"
)

//
// Test helpers
//

// setupService wires a Matching service over a fresh store with users
// user1, user2 and user3.
func setupService(t *testing.T, opts ...func(*config.Config)) (*matching.Service, *apptest.Env) {
	t.Helper()
	env := apptest.New(t, opts...)
	for _, id := range []string{"user1", "user2", "user3"} {
		env.Profile(t, id)
	}
	return matching.NewMatchingService(env.App), env
}

func swipe(t *testing.T, svc *matching.Service, env *apptest.Env, from, to string, action db.SwipeAction) *matching.SwipeResult {
	t.Helper()
	env.Clock.Advance(time.Second)
	res, err := svc.RecordSwipe(context.Background(), from, to, action)
	require.NoError(t, err)
	return res
}

//
// Tests
//

// TestMutualLikeCreatesOneMatch covers the match-once property: the second
// like of a pair creates the match and its thread, later likes reuse it.
func TestMutualLikeCreatesOneMatch(t *testing.T) {
	svc, env := setupService(t)
	ctx := context.Background()

	first := swipe(t, svc, env, "user1", "user2", db.SwipeLike)
	assert.False(t, first.IsMatch)

	second := swipe(t, svc, env, "user2", "user1", db.SwipeLike)
	require.True(t, second.IsMatch)
	require.NotEmpty(t, second.MatchID)

	m, err := svc.GetMatch(ctx, "user1", second.MatchID)
	require.NoError(t, err)
	assert.Equal(t, db.MatchActive, m.State)
	assert.Equal(t, "user1", m.UserAID)
	assert.Equal(t, "user2", m.UserBID)

	th, err := svc.GetThreadForMatch(ctx, "user2", m.ID)
	require.NoError(t, err)
	require.NotNil(t, th)
	assert.Equal(t, db.SchedulingPending, th.SchedulingState)

	again := swipe(t, svc, env, "user1", "user2", db.SwipeLike)
	assert.True(t, again.IsMatch)
	assert.Equal(t, second.MatchID, again.MatchID)

	matches, err := svc.ListMatches(ctx, "user1")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

// TestLatestSwipeDecides checks that a pass followed by a like counts as a
// like, and a like followed by a pass does not.
func TestLatestSwipeDecides(t *testing.T) {
	svc, env := setupService(t)

	swipe(t, svc, env, "user1", "user2", db.SwipeLike)
	swipe(t, svc, env, "user1", "user2", db.SwipePass)
	res := swipe(t, svc, env, "user2", "user1", db.SwipeLike)
	assert.False(t, res.IsMatch, "user1 changed their mind")

	swipe(t, svc, env, "user3", "user1", db.SwipePass)
	swipe(t, svc, env, "user3", "user1", db.SwipeLike)
	res = swipe(t, svc, env, "user1", "user3", db.SwipeLike)
	assert.True(t, res.IsMatch)
}

func TestRecordSwipeValidation(t *testing.T) {
	svc, env := setupService(t)
	ctx := context.Background()

	_, err := svc.RecordSwipe(ctx, "user1", "user1", db.SwipeLike)
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput)

	_, err = svc.RecordSwipe(ctx, "user1", "user2", "superlike")
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput)

	_, err = svc.RecordSwipe(ctx, "user1", "ghost", db.SwipeLike)
	assert.ErrorIs(t, err, svcErr.ErrPrecondition)

	_, err = svc.RecordSwipe(ctx, "", "user2", db.SwipeLike)
	assert.ErrorIs(t, err, svcErr.ErrUnauthenticated)

	require.NoError(t, env.App.Store.CreateBlock(ctx, &db.Block{
		ID: db.NewID(), BlockerID: "user2", BlockedID: "user1", CreatedAt: env.App.Now(),
	}))
	_, err = svc.RecordSwipe(ctx, "user1", "user2", db.SwipeLike)
	assert.ErrorIs(t, err, svcErr.ErrConflict)

	last, err := env.App.Store.LatestSwipe(ctx, "user1", "user2")
	require.NoError(t, err)
	assert.Nil(t, last, "rejected swipes are not stored")
}

func TestArchivedMatchIsNotRevived(t *testing.T) {
	svc, env := setupService(t)
	ctx := context.Background()

	m, _ := env.Match(t, "user1", "user2")
	ok, err := env.App.Store.SetMatchState(ctx, m.ID, db.MatchActive, db.MatchArchived, env.App.Now())
	require.NoError(t, err)
	require.True(t, ok)

	swipe(t, svc, env, "user2", "user1", db.SwipeLike)
	res := swipe(t, svc, env, "user1", "user2", db.SwipeLike)
	assert.False(t, res.IsMatch)
	assert.Empty(t, res.MatchID)

	matches, err := svc.ListMatches(ctx, "user1")
	require.NoError(t, err)
	assert.Empty(t, matches, "only active matches are listed")
}

func TestAutoMatch(t *testing.T) {
	svc, env := setupService(t, func(c *config.Config) { c.Match.AutoMatch = true })

	res := swipe(t, svc, env, "user1", "user3", db.SwipeLike)
	assert.True(t, res.IsMatch, "a single like matches when auto-match is on")

	res = swipe(t, svc, env, "user1", "user2", db.SwipePass)
	assert.False(t, res.IsMatch)
}

// TestConcurrentMutualLikes races both likes of a pair; exactly one match
// must exist afterwards and both callers must see it.
func TestConcurrentMutualLikes(t *testing.T) {
	svc, env := setupService(t)
	ctx := context.Background()

	// both users already liked each other once, so each new like is mutual
	swipe(t, svc, env, "user1", "user2", db.SwipeLike)
	require.NoError(t, env.App.Store.CreateSwipe(ctx, &db.Swipe{
		ID: db.NewID(), FromID: "user2", ToID: "user1", Action: db.SwipeLike, CreatedAt: env.App.Now(),
	}))
	matches, err := svc.ListMatches(ctx, "user1")
	require.NoError(t, err)
	require.Empty(t, matches)

	var wg sync.WaitGroup
	results := make([]*matching.SwipeResult, 2)
	errs := make([]error, 2)
	for i, pair := range [][2]string{{"user1", "user2"}, {"user2", "user1"}} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = svc.RecordSwipe(ctx, pair[0], pair[1], db.SwipeLike)
		}()
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.True(t, results[0].IsMatch)
	assert.True(t, results[1].IsMatch)
	assert.Equal(t, results[0].MatchID, results[1].MatchID)

	matches, err = svc.ListMatches(ctx, "user2")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestGetMatchIsParticipantOnly(t *testing.T) {
	svc, env := setupService(t)
	ctx := context.Background()
	m, _ := env.Match(t, "user1", "user2")

	_, err := svc.GetMatch(ctx, "user3", m.ID)
	assert.ErrorIs(t, err, svcErr.ErrPermissionDenied)

	_, err = svc.GetThreadForMatch(ctx, "user3", m.ID)
	assert.ErrorIs(t, err, svcErr.ErrPermissionDenied)

	missing, err := svc.GetMatch(ctx, "user1", "no-such-match")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

// TestListLikedYou checks that only current likers are returned, newest
// first: user3 liked user1 but was passed by user1.
func TestListLikedYou(t *testing.T) {
	svc, env := setupService(t)
	ctx := context.Background()

	swipe(t, svc, env, "user2", "user1", db.SwipeLike)
	swipe(t, svc, env, "user3", "user1", db.SwipeLike)
	swipe(t, svc, env, "user1", "user3", db.SwipePass)

	likers, next, err := svc.ListLikedYou(ctx, "user1", nil)
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, likers, 1)
	assert.Equal(t, "user2", likers[0].FromID)

	bad := "%%%"
	_, _, err = svc.ListLikedYou(ctx, "user1", &bad)
	assert.ErrorIs(t, err, svcErr.ErrInvalidInput)
}

func TestListLikedYouPaginates(t *testing.T) {
	svc, env := setupService(t)
	ctx := context.Background()

	for i := range 7 {
		id := "fan" + string(rune('a'+i))
		env.Profile(t, id)
		swipe(t, svc, env, id, "user1", db.SwipeLike)
	}

	page1, next, err := svc.ListLikedYou(ctx, "user1", nil)
	require.NoError(t, err)
	require.Len(t, page1, matching.LikedYouPageSize)
	require.NotNil(t, next)
	assert.Equal(t, "fang", page1[0].FromID, "newest first")

	page2, next, err := svc.ListLikedYou(ctx, "user1", next)
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, page2, 2)
	assert.Equal(t, "fana", page2[1].FromID)
}

// TestCountLikedYouCache verifies like counts with cache, and that swipes
// invalidate the cached value.
func TestCountLikedYouCache(t *testing.T) {
	svc, env := setupService(t)
	ctx := context.Background()

	swipe(t, svc, env, "user2", "user1", db.SwipeLike)

	// First call → DB
	n, err := svc.CountLikedYou(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.True(t, env.Redis.Exists("likes:count:user1"))

	// Second call → cache
	require.NoError(t, env.Redis.Set("likes:count:user1", "42"))
	n, err = svc.CountLikedYou(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	// a new like drops the cached value
	swipe(t, svc, env, "user3", "user1", db.SwipeLike)
	assert.False(t, env.Redis.Exists("likes:count:user1"))
	n, err = svc.CountLikedYou(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	cached, err := env.Redis.Get("likes:count:user1")
	require.NoError(t, err)
	assert.Equal(t, "2", cached)
	assert.Equal(t, cache.LikeCountTTL, env.Redis.TTL("likes:count:user1"))

	// hits do not extend the entry
	env.Redis.FastForward(cache.LikeCountTTL - time.Minute)
	_, err = svc.CountLikedYou(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, env.Redis.TTL("likes:count:user1"))
}

func TestCountLikedYouSurvivesRedisOutage(t *testing.T) {
	svc, env := setupService(t)
	ctx := context.Background()

	swipe(t, svc, env, "user2", "user1", db.SwipeLike)
	env.Redis.Close()

	n, err := svc.CountLikedYou(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
