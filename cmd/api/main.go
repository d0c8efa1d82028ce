package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/nsaleh/spabook/internal/api/router"
	"github.com/nsaleh/spabook/internal/bookings"
	"github.com/nsaleh/spabook/internal/catalog"
	appconfig "github.com/nsaleh/spabook/internal/config"
	"github.com/nsaleh/spabook/internal/http/handlers"
	"github.com/nsaleh/spabook/internal/observability/metrics"
	"github.com/nsaleh/spabook/internal/realtime"
	"github.com/nsaleh/spabook/internal/stats"
	"github.com/nsaleh/spabook/pkg/logging"
)

func main() {
	// Load .env in development; the file is absent in deployed environments.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting spabook API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	window, err := cfg.Window()
	if err != nil {
		logger.Error("invalid operating window", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, availability snapshots disabled", "error", err)
	}

	// The stats queries run on database/sql with the pq driver; everything
	// else uses the pgx pool.
	statsDB, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open stats database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = statsDB.Close() }()

	schedMetrics := metrics.NewSchedulingMetrics(nil)
	hub := realtime.NewHub(logger)

	repo := bookings.NewRepository(pool)
	snapshots := bookings.NewSnapshotStore(redisClient, time.Duration(cfg.SnapshotTTLSeconds)*time.Second)
	bookingSvc := bookings.NewService(repo, window, snapshots, hub, schedMetrics, logger)
	catalogStore := catalog.NewStore(redisClient)
	statsRepo := stats.NewRepository(statsDB, window)

	r := router.New(router.Config{
		Bookings:           handlers.NewHandler(bookingSvc, catalogStore, logger),
		Catalog:            catalog.NewHandler(catalogStore, logger),
		Stats:              stats.NewHandler(statsRepo, logger),
		Hub:                hub,
		Logger:             logger,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
