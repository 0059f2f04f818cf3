package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"procurement/db"
	"procurement/db/migrations"
	"procurement/internal/cache"
	"procurement/internal/config"
	"procurement/internal/evaluation"
	"procurement/internal/handlers"
	"procurement/internal/logger"
	"procurement/internal/metrics"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "procurement-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "procurement-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": cfg.App.Address,
	})

	dbConn, err := db.Connect(ctx, cfg.DB.DSN, cfg.DB.MaxOpenConns, cfg.DB.MaxIdleConns)
	if err != nil {
		logg.Error(ctx, "cannot connect to database", err)
		os.Exit(1)
	}
	dbConn.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)
	defer func() {
		if err := dbConn.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if cfg.App.AutoMigrate {
		if err := migrations.Up(ctx, dbConn.DB); err != nil {
			logg.Error(ctx, "failed to run migrations", err)
			os.Exit(1)
		}
		logg.Info(ctx, "migrations applied")
	}

	// Без REDIS_URL рейтинг каждый раз собирается из базы
	var rankingCache cache.RankingCache = cache.Noop{}
	if cfg.Redis.Enabled() {
		redisCache, err := cache.NewRedis(ctx, cfg.Redis.URL, cfg.Redis.RankingTTL)
		if err != nil {
			logg.Error(ctx, "failed to connect to redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisCache.Close(); err != nil {
				logg.Error(ctx, "error closing redis", err)
			}
		}()
		rankingCache = redisCache
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store := db.NewStorage(dbConn)
	evaluator := evaluation.NewService(store, evaluation.Options{
		Cache:     rankingCache,
		Metrics:   metrics.New(reg),
		Logger:    logg,
		Threshold: cfg.Scoring.Threshold(),
	})
	h := handlers.NewHandler(store, evaluator, logg)

	server := &http.Server{
		Addr:              cfg.App.Address,
		Handler:           handlers.NewRouter(h, logg, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "graceful shutdown failed", err)
	}
	logg.Info(ctx, "api server stopped")
}
