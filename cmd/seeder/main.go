package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	corecfg "github.com/obslab/pulse/internal/core/config"
	"github.com/obslab/pulse/internal/migrations"
	"github.com/obslab/pulse/internal/seed"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := seed.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if !seed.WaitReady(ctx, store.Ping, cfg.Seeder.MaxAttempts, cfg.Seeder.BackoffDuration()) {
		slog.Error("[Seeder] Database never became ready, giving up")
		os.Exit(1)
	}

	if err := migrations.Run(store.DB()); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	points := seed.NewGenerator(nil).GenerateSeries(time.Now().UTC(), cfg.Seeder.WindowWeeks)
	if err := store.Replace(ctx, points); err != nil {
		slog.Error("[Seeder] Failed to write series", "error", err)
		os.Exit(1)
	}

	slog.Info("[Seeder] Seeding complete", "rows", len(points), "weeks", cfg.Seeder.WindowWeeks)
}
