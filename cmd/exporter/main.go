package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/obslab/pulse/internal/alarm"
	corecfg "github.com/obslab/pulse/internal/core/config"
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

	catalog, err := alarm.LoadCatalog(cfg.Emitter.CatalogDir)
	if err != nil {
		slog.Error("Failed to load alarm catalog", "error", err)
		os.Exit(1)
	}

	metrics, err := alarm.NewMetrics(catalog)
	if err != nil {
		slog.Error("Failed to register metrics", "error", err)
		os.Exit(1)
	}

	windows := alarm.RateWindows{
		BusinessStart: cfg.Emitter.BusinessStart,
		BusinessEnd:   cfg.Emitter.BusinessEnd,
		EveningStart:  cfg.Emitter.EveningStart,
		EveningEnd:    cfg.Emitter.EveningEnd,
	}
	emitter := alarm.NewEmitter(catalog, alarm.NewRateModel(nil, nil, windows), metrics, cfg.Emitter.IntervalDuration())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := alarm.NewServer(addr, cfg.Server.Mode, emitter, metrics)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return emitter.Run(ctx) })
	g.Go(func() error { return srv.Run(ctx) })

	if err := g.Wait(); err != nil {
		slog.Error("Exporter stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Shutdown complete")
}
