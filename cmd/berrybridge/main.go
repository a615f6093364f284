package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/dukerupert/berrybridge/internal/backend"
	"github.com/dukerupert/berrybridge/internal/config"
	"github.com/dukerupert/berrybridge/internal/database"
	"github.com/dukerupert/berrybridge/internal/feed"
	"github.com/dukerupert/berrybridge/internal/logging"
	"github.com/dukerupert/berrybridge/internal/middleware"
	"github.com/dukerupert/berrybridge/internal/server"
	"github.com/dukerupert/berrybridge/internal/store"
	ws "github.com/dukerupert/berrybridge/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("error", "text").Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := backend.NewClient(backend.Config{
		BaseURL: cfg.BackendURL,
		Timeout: cfg.BackendTimeout,
		Rate:    cfg.BackendRate,
		Burst:   cfg.BackendBurst,
		Retries: cfg.BackendRetries,
	}, logger)
	capabilities := store.NewCapabilityStore(db)
	negotiator := backend.NewNegotiator(capabilities, logger)
	snapshots := store.NewSnapshotStore(db)
	hub := ws.NewHub(logger.With("component", "websocket"))
	svc := feed.NewService(client, negotiator, snapshots, hub, logger)

	auth := middleware.NewAuthenticator(cfg.JWTSecret)
	if !auth.Verifies() {
		logger.Warn("BERRY_JWT_SECRET not set; tokens are read unverified, role-gated routes and the live feed are refused")
	}

	var refresher *feed.Refresher
	if cfg.ServiceAccountEnabled() {
		refresher = feed.NewRefresher(feed.RefresherConfig{
			Email:       cfg.ServiceEmail,
			Password:    cfg.ServicePassword,
			Interval:    cfg.RefreshInterval,
			SnapshotTTL: cfg.SnapshotTTL,
		}, client, negotiator, snapshots, store.NewCredentialStore(db, cfg.CredentialPassphrase), hub, logger)
		refresher.Start(ctx)
		defer refresher.Stop()
	}

	srv := server.New(svc, client, negotiator, capabilities, hub, refresher, auth, logger)
	srv.RateLimiter().StartCleanup(ctx, 5*time.Minute)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("berrybridge listening", "port", cfg.Port, "backend", cfg.BackendURL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
