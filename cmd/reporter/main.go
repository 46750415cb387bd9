package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	corecfg "github.com/obslab/pulse/internal/core/config"
	"github.com/obslab/pulse/internal/grafana"
	"github.com/obslab/pulse/internal/report"
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

	client := grafana.NewClient(cfg.Grafana.URL, cfg.Grafana.User, cfg.Grafana.Password, cfg.Grafana.TimeoutDuration())

	// The direct SQL path is optional; the runner falls back to dashboard
	// panel data when the database is unreachable.
	var weekly report.WeeklySource
	if store, err := seed.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns); err != nil {
		slog.Warn("[Reporter] Database unavailable, relying on dashboard panels", "error", err)
	} else {
		defer store.Close()
		weekly = store
	}

	var primary report.SheetWriter
	if cfg.Report.SpreadsheetID != "" {
		writer, err := report.NewSheetsWriter(ctx, cfg.Report.CredentialsFile, cfg.Report.SpreadsheetID)
		if err != nil {
			slog.Warn("[Reporter] Spreadsheet service unavailable, will use local fallback", "error", err)
		} else {
			primary = writer
		}
	}
	publisher := report.NewPublisher(primary, report.NewExcelWriter(cfg.Report.FallbackPath))

	if err := report.NewRunner(client, weekly, publisher).Run(ctx); err != nil {
		slog.Error("[Reporter] Run failed", "error", err)
		os.Exit(1)
	}
	slog.Info("[Reporter] Run complete")
}
