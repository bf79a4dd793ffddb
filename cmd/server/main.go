package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/pflag"

	"github.com/oggyb/callfirst/internal/app"
	"github.com/oggyb/callfirst/internal/cache"
	"github.com/oggyb/callfirst/internal/config"
	"github.com/oggyb/callfirst/internal/db"
	"github.com/oggyb/callfirst/internal/logger"
	"github.com/oggyb/callfirst/internal/repository"
	"github.com/oggyb/callfirst/internal/repository/memstore"
	"github.com/oggyb/callfirst/internal/server"
	"github.com/oggyb/callfirst/internal/service/call"
	"github.com/oggyb/callfirst/internal/service/identity"
	"github.com/oggyb/callfirst/internal/service/matching"
	"github.com/oggyb/callfirst/internal/service/profile"
	"github.com/oggyb/callfirst/internal/service/safety"
	"github.com/oggyb/callfirst/internal/service/scheduling"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg := config.New()

	flagSet := pflag.NewFlagSet("callfirst-server", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.GRPC.Host, "host", cfg.GRPC.Host, "gRPC listen host")
	flagSet.StringVar(&cfg.GRPC.Port, "port", cfg.GRPC.Port, "gRPC listen port")
	flagSet.StringVar(&cfg.Store.Backend, "store", cfg.Store.Backend, "storage backend: gorm or memory")
	flagSet.StringVar(&cfg.Store.SnapshotPath, "snapshot", cfg.Store.SnapshotPath, "snapshot file of the memory store (empty keeps it in memory only)")
	seed := flagSet.Bool("seed", cfg.App.ENV == config.EnvDevelopment, "insert the demo profiles on start")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	// Init logger (global singleton)
	log := logger.InitFromConfig(cfg)

	// Sentry error tracking
	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.App.ENV,
		}); err != nil {
			log.Error("sentry init failed", "err", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	appCtx := app.New(cfg, store, redisCache, log)

	if *seed {
		if err := db.SeedDemoData(ctx, store, appCtx.Now()); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	ident := identity.NewRegistrar(appCtx)
	calls := call.NewRegistrar(appCtx)
	defer calls.Controller().Close()

	grpcServer := server.NewGRPCServer(ident.Service(), log,
		ident,
		profile.NewRegistrar(appCtx),
		matching.NewRegistrar(appCtx),
		scheduling.NewRegistrar(appCtx),
		calls,
		safety.NewRegistrar(appCtx),
	)

	go sweepMissedCalls(ctx, appCtx, calls.Controller())

	addr := cfg.GRPC.Host + ":" + cfg.GRPC.Port
	log.Info("starting gRPC server", "addr", addr, "store", cfg.Store.Backend)
	if err := server.Serve(ctx, grpcServer, addr); err != nil {
		return fmt.Errorf("gRPC server failed: %w", err)
	}
	log.Info("gRPC server stopped")
	return nil
}

// openStore returns the configured storage backend and a func releasing it.
func openStore(cfg *config.Config) (repository.Store, func(), error) {
	switch cfg.Store.Backend {
	case "memory":
		if cfg.Store.SnapshotPath == "" {
			return memstore.New(), func() {}, nil
		}
		s, err := memstore.Open(cfg.Store.SnapshotPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open memory store: %w", err)
		}
		return s, func() {}, nil
	case "gorm", "":
		database, err := db.NewDB(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to init db: %w", err)
		}
		closeDB := func() {
			if sqlDB, err := database.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return repository.NewGormStore(database), closeDB, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
}

// sweepMissedCalls marks overdue scheduled calls missed every sweep interval
// until ctx is done.
func sweepMissedCalls(ctx context.Context, appCtx *app.AppContext, ctrl *call.Controller) {
	ticker := appCtx.Clock.NewTicker(appCtx.Config.Call.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if _, err := ctrl.SweepMissed(ctx); err != nil && ctx.Err() == nil {
				appCtx.Logger.Error("missed call sweep failed", "err", err)
			}
		}
	}
}
