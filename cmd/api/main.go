package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "voice-agent/docs" // Swagger docs
	"voice-agent/internal/api"
	"voice-agent/internal/config"
	"voice-agent/internal/observe"
	"voice-agent/internal/storage"
)

// @title Voice Agent API
// @version 1.0
// @description Recruiting dashboard API: candidates, jobs, appointments and interview conversations,
// @description plus a websocket endpoint that runs voice interviews through the browser.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api
// @schemes http

func main() {
	cfg, err := config.Load("")
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	level, _ := observe.ParseLevel(cfg.LogLevel)
	logger, err := observe.NewLogger(level, cfg.LogFormat, os.Stderr)
	if err != nil {
		slog.Error("create logger", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: "1.0"})
	if err != nil {
		slog.Error("init telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			slog.Warn("telemetry shutdown", "error", err)
		}
	}()

	script, err := cfg.Script()
	if err != nil {
		slog.Error("interview script", "error", err)
		os.Exit(1)
	}

	dialect, _ := storage.ParseDSN(cfg.DatabaseURL)
	slog.Info("connecting to database", "dialect", dialect)
	db, err := storage.NewDB(cfg.DatabaseURL)
	if err != nil {
		slog.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		slog.Error("migrate database", "error", err)
		os.Exit(1)
	}
	slog.Info("database ready")

	apiSrv := api.NewAPI(db, api.Options{
		UploadsDir:     cfg.UploadsDir,
		ImportWorkers:  cfg.ImportWorkers,
		AllowedOrigins: cfg.AllowedOrigins,
		Script:         script,
		CompanyName:    cfg.CompanyName,
		Pause:          cfg.Interview.Pause,
		ListenPoll:     cfg.Interview.ListenPoll,
		Metrics:        observe.DefaultMetrics(),
		Logger:         logger,
	})
	defer apiSrv.Close()

	srv := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     api.NewRouter(apiSrv),
		ReadTimeout: 30 * time.Second, // document uploads
		IdleTimeout: 120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			slog.Warn("server shutdown", "error", err)
		}
		close(idleConnsClosed)
	}()

	slog.Info("API server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("serve", "error", err)
		os.Exit(1)
	}

	<-idleConnsClosed
}
