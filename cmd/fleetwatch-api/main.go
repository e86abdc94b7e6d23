// README: Entry point; loads config, wires services, starts HTTP server and background sweepers.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"fleetwatch/internal/auth"
	"fleetwatch/internal/config"
	httptransport "fleetwatch/internal/http"
	"fleetwatch/internal/infra"
	"fleetwatch/internal/logging"
	"fleetwatch/internal/modules/alerts"
	"fleetwatch/internal/modules/presence"
	"fleetwatch/internal/modules/retention"
	"fleetwatch/internal/modules/tracking"
	"fleetwatch/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal("database connect", zap.Error(err))
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer func() { _ = redisClient.Close() }()

	verifier := auth.NewHMACVerifier(cfg.Auth.JWTSecret)

	registry := ws.NewRegistry()
	hub := ws.NewHub(registry, logger)

	trackingStore := tracking.NewStore(dbPool, redisClient)
	trackingSvc := tracking.NewService(trackingStore, hub, logger)

	alertStore := alerts.NewStore(dbPool)
	alertSvc := alerts.NewService(alertStore, hub, logger)

	presenceSweeper := presence.NewSweeper(trackingStore, hub,
		cfg.Presence.OfflineThreshold, cfg.Presence.SweepInterval, logger)
	retentionSweeper := retention.NewSweeper(trackingStore, alertStore, cfg.Retention, logger)

	wsHandler := ws.NewHandler(registry, verifier, trackingSvc, alertSvc, logger)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Tracking:      trackingSvc,
		Alerts:        alertSvc,
		WS:            wsHandler,
		Verifier:      verifier,
		DB:            dbPool,
		Sweeper:       presenceSweeper,
		SweepInterval: cfg.Presence.SweepInterval,
		Log:           logger,
	})

	go presenceSweeper.Run(ctx)
	go retentionSweeper.RunHistoryPruner(ctx)
	go retentionSweeper.RunAlertArchiver(ctx)

	server := httptransport.NewServer(cfg.HTTP.Addr, router, logger)
	logger.Info("listening", zap.String("addr", cfg.HTTP.Addr))
	if err := server.Run(ctx); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
