package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/migration-dashboard/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/migration-dashboard/internal/adapter/http"
	"github.com/couchcryptid/migration-dashboard/internal/adapter/plot"
	"github.com/couchcryptid/migration-dashboard/internal/config"
	"github.com/couchcryptid/migration-dashboard/internal/dashboard"
	"github.com/couchcryptid/migration-dashboard/internal/observability"
)

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	table, err := csvfile.Load(cfg.DataPath)
	if err != nil {
		logger.Error("failed to load tracking data", "path", cfg.DataPath, "error", err)
		os.Exit(1)
	}
	lo, hi, _ := table.YearBounds()
	logger.Info("tracking data loaded", "path", cfg.DataPath, "records", table.Len(), "year_min", lo, "year_max", hi)
	metrics.RecordsLoaded.Set(float64(table.Len()))

	renderer, err := dashboard.NewRenderer(table, cfg.Style.Palette, cfg.SceneCacheSize, metrics, logger)
	if err != nil {
		logger.Error("failed to create renderer", "error", err)
		os.Exit(1)
	}

	layout := dashboard.NewLayout(table, cfg.Style)
	sessions, err := dashboard.NewSessionStore(cfg.SessionCapacity, cfg.SessionTTL, layout.DefaultSelection(), clockwork.NewRealClock(), metrics)
	if err != nil {
		logger.Error("failed to create session store", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Renderer:   renderer,
		Dispatcher: dashboard.NewDispatcher(renderer, metrics, logger),
		Sessions:   sessions,
		Layout:     layout,
		Snapshot:   plot.NewSnapshot(cfg.Style),
		Metrics:    metrics,
	}, logger)
	renderer.MarkReady()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
