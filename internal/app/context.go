package app

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/oggyb/callfirst/internal/cache"
	"github.com/oggyb/callfirst/internal/config"
	"github.com/oggyb/callfirst/internal/db"
	"github.com/oggyb/callfirst/internal/provider"
	"github.com/oggyb/callfirst/internal/repository"
)

// AppContext holds shared dependencies (store, Redis, logger, clock, etc.)
type AppContext struct {
	Config     *config.Config
	Store      repository.Store
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Clock      clockwork.Clock

	Rooms    provider.VideoRooms
	Codes    provider.CodeSender
	Photos   provider.PhotoStore
	Notifier provider.Notifier
}

// New creates a new AppContext with the real clock and the mock/logging
// providers. Tests override fields as needed.
func New(cfg *config.Config, store repository.Store, rdb *cache.RedisCache, logger *slog.Logger) *AppContext {
	return &AppContext{
		Config:     cfg,
		Store:      store,
		RedisCache: rdb,
		Logger:     logger,
		Clock:      clockwork.NewRealClock(),
		Rooms:      provider.MockRooms{},
		Codes:      provider.LogCodeSender{Logger: logger},
		Photos:     provider.LogPhotoStore{Logger: logger},
		Notifier:   provider.LogNotifier{Logger: logger},
	}
}

// Now returns the current time at storage precision.
func (a *AppContext) Now() time.Time {
	return db.Timestamp(a.Clock.Now())
}
