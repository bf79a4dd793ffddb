package memstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/callfirst/internal/db"
	"github.com/oggyb/callfirst/internal/repository"
	"github.com/oggyb/callfirst/internal/repository/storetest"
)

func TestMemoryContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repository.Store {
		return New()
	})
}

func TestSnapshotContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repository.Store {
		s, err := Open(filepath.Join(t.TempDir(), "state.cbor.zst"))
		require.NoError(t, err)
		return s
	})
}

func TestSnapshotSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.cbor.zst")
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.SeedDemoData(ctx, s, now))

	m := &db.Match{ID: db.NewID(), UserAID: "demo-alex", UserBID: "demo-jordan", State: db.MatchActive, CreatedAt: now}
	th := &db.CallThread{ID: db.NewID(), SchedulingState: db.SchedulingPending, LastActivityAt: now}
	_, err = s.CreateMatchWithThread(ctx, m, th)
	require.NoError(t, err)

	reopened, err := Open(path)
	require.NoError(t, err)

	p, err := reopened.GetProfile(ctx, "demo-jordan")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Jordan", p.Name)
	assert.Len(t, p.Photos, 2)
	assert.True(t, p.CreatedAt.Equal(time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)))

	got, err := reopened.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, db.MatchActive, got.State)
	assert.True(t, got.CreatedAt.Equal(now))

	thread, err := reopened.GetThreadByMatch(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, thread)
	assert.Equal(t, th.ID, thread.ID)
}

func TestSnapshotIsDeterministic(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	dir := t.TempDir()

	write := func(name string) []byte {
		s, err := Open(filepath.Join(dir, name))
		require.NoError(t, err)
		for _, p := range db.DemoProfiles(now) {
			require.NoError(t, s.CreateProfile(ctx, &p))
		}
		b, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		return b
	}

	assert.Equal(t, write("a.cbor.zst"), write("b.cbor.zst"))
}

func TestFailedPersistRollsBack(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "state.cbor.zst")
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.CreateProfile(ctx, &db.UserProfile{ID: "kept", Name: "Kept", CreatedAt: now}))

	// point the store at a directory that does not exist
	s.path = filepath.Join(dir, "missing", "state.cbor.zst")
	err = s.CreateProfile(ctx, &db.UserProfile{ID: "lost", Name: "Lost", CreatedAt: now})
	require.Error(t, err)

	lost, err := s.GetProfile(ctx, "lost")
	require.NoError(t, err)
	assert.Nil(t, lost, "failed write is not visible")

	kept, err := s.GetProfile(ctx, "kept")
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestReturnedValuesAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreateProfile(ctx, &db.UserProfile{ID: "p", Name: "P", Photos: []string{"x"}}))

	p, err := s.GetProfile(ctx, "p")
	require.NoError(t, err)
	p.Name = "changed"
	p.Photos[0] = "changed"

	again, err := s.GetProfile(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "P", again.Name)
	assert.Equal(t, "x", again.Photos[0])
}

func TestCanceledContextRejectsWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New().CreateProfile(ctx, &db.UserProfile{ID: "p"})
	assert.ErrorIs(t, err, context.Canceled)
}
