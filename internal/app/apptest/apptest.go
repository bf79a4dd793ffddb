// Package apptest builds a fully wired AppContext for service tests: an
// in-memory SQLite store, miniredis, a fake clock and recording providers.
package apptest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/callfirst/internal/app"
	"github.com/oggyb/callfirst/internal/cache"
	"github.com/oggyb/callfirst/internal/config"
	"github.com/oggyb/callfirst/internal/db"
	tlog "github.com/oggyb/callfirst/internal/logger"
	"github.com/oggyb/callfirst/internal/repository"
)

// Epoch is the fake clock's starting time.
var Epoch = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

type Env struct {
	App      *app.AppContext
	Clock    clockwork.FakeClock
	Redis    *miniredis.Miniredis
	Codes    *Codes
	Photos   *Photos
	Notifier *Notifier
}

// New returns an Env for t. Options adjust the config before services are
// built.
func New(t *testing.T, opts ...func(*config.Config)) *Env {
	t.Helper()

	cfg := config.New()
	cfg.App.ENV = config.EnvTest
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.DemoLogin = true
	cfg.Call.DurationSeconds = config.ShortCallSeconds
	cfg.Call.MissedGrace = 10 * time.Minute
	cfg.Match.AutoMatch = false
	cfg.Feedback.ArchiveOnMutualPass = false

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	cfg.Redis.Addr = mr.Addr()

	for _, opt := range opts {
		opt(cfg)
	}

	rc := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = rc.Close() })

	appCtx := app.New(cfg, repository.NewGormStore(OpenDB(t)), rc, tlog.Discard())
	clock := clockwork.NewFakeClockAt(Epoch)
	appCtx.Clock = clock

	env := &Env{
		App:      appCtx,
		Clock:    clock,
		Redis:    mr,
		Codes:    &Codes{},
		Photos:   &Photos{},
		Notifier: &Notifier{},
	}
	appCtx.Codes = env.Codes
	appCtx.Photos = env.Photos
	appCtx.Notifier = env.Notifier
	return env
}

// OpenDB opens a private in-memory SQLite database with the full schema.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Discard,
		TranslateError: true,
	})
	require.NoError(t, err, "failed to open sqlite")

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(database), "failed to migrate")
	return database
}

// Profile stores a valid adult profile with the given id.
func (e *Env) Profile(t *testing.T, id string) *db.UserProfile {
	t.Helper()
	p := &db.UserProfile{
		ID:        id,
		Name:      strings.ToUpper(id[:1]) + id[1:],
		Birthday:  time.Date(1995, time.March, 14, 0, 0, 0, 0, time.UTC),
		Gender:    db.GenderWoman,
		Sexuality: db.SexualityBisexual,
		ShowMe:    db.ShowMeEveryone,
		Photos:    []string{"https://photos.test/" + id + "/1.jpg"},
		Prompts:   []string{"Ask me about " + id},
		CreatedAt: e.App.Now(),
	}
	require.NoError(t, e.App.Store.CreateProfile(context.Background(), p))
	return p
}

// Match stores an active match with a pending thread for a and b.
func (e *Env) Match(t *testing.T, a, b string) (*db.Match, *db.CallThread) {
	t.Helper()
	now := e.App.Now()
	ua, ub := db.OrderedPair(a, b)
	m := &db.Match{ID: db.NewID(), UserAID: ua, UserBID: ub, State: db.MatchActive, CreatedAt: now, UpdatedAt: now}
	th := &db.CallThread{ID: db.NewID(), MatchID: m.ID, SchedulingState: db.SchedulingPending, LastActivityAt: now}
	m, err := e.App.Store.CreateMatchWithThread(context.Background(), m, th)
	require.NoError(t, err)
	return m, th
}

// Codes records one-time codes instead of sending them.
type Codes struct {
	mu   sync.Mutex
	sent map[string]string
}

func (c *Codes) SendCode(_ context.Context, phone, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sent == nil {
		c.sent = map[string]string{}
	}
	c.sent[phone] = code
	return nil
}

// Last returns the most recent code sent to phone.
func (c *Codes) Last(phone string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent[phone]
}

// Photos records deleted photo URLs. Fail makes every deletion fail.
type Photos struct {
	mu      sync.Mutex
	deleted []string
	Fail    error
}

func (p *Photos) DeletePhoto(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Fail != nil {
		return p.Fail
	}
	p.deleted = append(p.deleted, url)
	return nil
}

func (p *Photos) Deleted() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.deleted...)
}

// Notifier records call-ended notifications.
type Notifier struct {
	mu    sync.Mutex
	ended []Ended
}

type Ended struct {
	CallEventID string
	UserIDs     []string
}

func (n *Notifier) CallEnded(_ context.Context, event *db.CallEvent, userIDs []string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ended = append(n.ended, Ended{CallEventID: event.ID, UserIDs: userIDs})
	return nil
}

func (n *Notifier) Ended() []Ended {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Ended(nil), n.ended...)
}
