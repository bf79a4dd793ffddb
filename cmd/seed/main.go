package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/oggyb/callfirst/internal/config"
	"github.com/oggyb/callfirst/internal/db"
	"github.com/oggyb/callfirst/internal/logger"
	"github.com/oggyb/callfirst/internal/repository"
	"github.com/oggyb/callfirst/internal/repository/memstore"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// Load configuration
	cfg := config.New()

	flagSet := pflag.NewFlagSet("callfirst-seed", pflag.ContinueOnError)
	reset := flagSet.Bool("reset", false, "clear every table before seeding (gorm store only)")
	flagSet.StringVar(&cfg.Store.Backend, "store", cfg.Store.Backend, "storage backend: gorm or memory")
	flagSet.StringVar(&cfg.Store.SnapshotPath, "snapshot", cfg.Store.SnapshotPath, "snapshot file of the memory store")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	log := logger.InitFromConfig(cfg)
	ctx := context.Background()

	var w db.DemoWriter
	switch cfg.Store.Backend {
	case "memory":
		if cfg.Store.SnapshotPath == "" {
			return errors.New("the memory store needs --snapshot to keep seeded data")
		}
		if *reset {
			if err := os.Remove(cfg.Store.SnapshotPath); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to reset snapshot: %w", err)
			}
		}
		s, err := memstore.Open(cfg.Store.SnapshotPath)
		if err != nil {
			return fmt.Errorf("failed to open memory store: %w", err)
		}
		w = s
	default:
		database, err := db.NewDB(cfg)
		if err != nil {
			return fmt.Errorf("failed to init db: %w", err)
		}
		if *reset {
			if err := db.ResetTables(database); err != nil {
				return err
			}
			log.Info("tables cleared")
		}
		w = repository.NewGormStore(database)
	}

	if err := db.SeedDemoData(ctx, w, db.Timestamp(time.Now())); err != nil {
		return fmt.Errorf("failed to seed: %w", err)
	}
	log.Info("seeding completed", "store", cfg.Store.Backend, "password", db.DemoPassword)
	return nil
}
