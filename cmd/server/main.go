package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/codyseavey/clutch-picks/backend/internal/api"
	"github.com/codyseavey/clutch-picks/backend/internal/cache"
	"github.com/codyseavey/clutch-picks/backend/internal/config"
	"github.com/codyseavey/clutch-picks/backend/internal/database"
	"github.com/codyseavey/clutch-picks/backend/internal/logger"
	"github.com/codyseavey/clutch-picks/backend/internal/services"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config (optional)")
	envOnly := flag.Bool("env-only", false, "Ignore the config file and read only PICKS_* variables")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envOnly)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	// Initialize database
	db, err := database.Open(cfg.DB, log)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer func() { _ = database.Close(db) }()

	listings, closeCache, err := newListingCache(cfg.Cache, log)
	if err != nil {
		log.Fatal("failed to initialize listing cache", zap.Error(err))
	}
	defer closeCache()

	inference, err := services.NewInferenceClient(cfg.Inference, log)
	if err != nil {
		log.Fatal("failed to initialize inference client", zap.Error(err))
	}

	// Initialize services
	store := database.NewStore(db)
	betService := services.NewBetService(store, cfg.Clutch.MinOdds)
	dashboardService := services.NewDashboardService(store, betService, log)
	marketplaceService := services.NewMarketplaceService(db, listings, log)
	predictionService := services.NewPredictionService(inference, inference, db, log)
	leaderboardService := services.NewLeaderboardService(store, db, cfg.Leaderboard.Schedule, log)

	// Create a cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start leaderboard snapshots in background with panic recovery
	if cfg.Leaderboard.Enabled {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic in leaderboard service", zap.Any("panic", r))
				}
			}()
			if err := leaderboardService.Start(ctx); err != nil {
				log.Error("leaderboard service stopped", zap.Error(err))
			}
		}()
	}

	router := api.SetupRouter(cfg.Server, api.Services{
		Dashboard:   dashboardService,
		Marketplace: marketplaceService,
		Predictor:   predictionService,
		Leaderboard: leaderboardService,
		Ping:        func() error { return database.Ping(db) },
	})

	var handler http.Handler = router
	if cfg.Server.RequestTimeout > 0 {
		handler = http.TimeoutHandler(router, cfg.Server.RequestTimeout, `{"error":"request timed out"}`)
	}

	// Create HTTP server for graceful shutdown
	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("starting server", zap.String("addr", cfg.Server.HTTPAddr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	// Cancel the context to stop the leaderboard schedule
	cancel()

	// Give outstanding requests a deadline to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}

// newListingCache picks redis when a URL is configured and the in-process
// LRU otherwise.
func newListingCache(cfg config.CacheConfig, log *zap.Logger) (cache.Store, func(), error) {
	if cfg.RedisURL == "" {
		log.Info("listing cache: in-process LRU", zap.Int("size", cfg.Size), zap.Duration("ttl", cfg.TTL))
		return cache.NewLRUStore(cfg.Size, cfg.TTL), func() {}, nil
	}

	store, err := cache.NewRedisStore(cfg.RedisURL, cfg.TTL)
	if err != nil {
		return nil, nil, err
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		log.Warn("listing cache: redis unreachable, reads will fall through to the database", zap.Error(err))
	} else {
		log.Info("listing cache: redis")
	}

	return store, func() { _ = store.Close() }, nil
}
